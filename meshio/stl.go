package meshio

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/chewxy/math32"
	"gonum.org/v1/gonum/spatial/r3"
)

// Triangle is a 3D triangle with counter-clockwise winding.
type Triangle [3]r3.Vec

// Normal returns the unit normal of the triangle.
func (t Triangle) Normal() r3.Vec {
	e1 := r3.Sub(t[1], t[0])
	e2 := r3.Sub(t[2], t[0])
	return r3.Unit(r3.Cross(e1, e2))
}

// WriteSTL writes triangles to w in binary STL format. A model with no
// triangles is written as a bare header.
func WriteSTL(w io.Writer, model []Triangle) error {
	if uint64(len(model)) > math.MaxUint32 {
		return fmt.Errorf("%w: %d triangles do not fit in STL header", ErrFormat, len(model))
	}
	bw := bufio.NewWriter(w)
	header := stlHeader{
		Count: uint32(len(model)),
	}
	if err := binary.Write(bw, binary.LittleEndian, &header); err != nil {
		return err
	}
	var (
		d stlTriangle
		b [stlTriangleSize]byte
	)
	for i, triangle := range model {
		d.Normal = to3F32(triangle.Normal())
		d.Vertex1 = to3F32(triangle[0])
		d.Vertex2 = to3F32(triangle[1])
		d.Vertex3 = to3F32(triangle[2])
		if bad3F32(d.Vertex1) || bad3F32(d.Vertex2) || bad3F32(d.Vertex3) {
			return fmt.Errorf("triangle %d: %w", i, errFloat32)
		}
		d.put(b[:])
		if _, err := bw.Write(b[:]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadSTLVertices reads a binary STL model and returns its distinct
// vertices in order of first appearance.
func ReadSTLVertices(r io.Reader) ([]r3.Vec, error) {
	model, err := ReadSTL(r)
	if err != nil {
		return nil, err
	}
	seen := make(map[r3.Vec]struct{}, len(model))
	points := make([]r3.Vec, 0, len(model)/2)
	for _, t := range model {
		for _, v := range t {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			points = append(points, v)
		}
	}
	return points, nil
}

// ReadSTL reads all triangles of a binary STL model.
func ReadSTL(r io.Reader) (output []Triangle, readErr error) {
	var header stlHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: encountered EOF while reading STL header", ErrFormat)
		}
		return nil, errors.New("STL header read failed: " + err.Error())
	}
	if header.Count == 0 {
		return nil, fmt.Errorf("%w: STL header indicates 0 triangles present", ErrFormat)
	}
	var (
		buf [stlTriangleSize]byte
		d   stlTriangle
		i   int
	)
	defer func() {
		if readErr != nil {
			readErr = fmt.Errorf("%d/%d STL triangles read: %w", i+1, header.Count, readErr)
		}
	}()
	output = make([]Triangle, 0, min(int(header.Count), 1<<16))
	for i = 0; i < int(header.Count); i++ {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
				err = fmt.Errorf("%w: truncated STL body", ErrFormat)
			}
			return nil, err
		}
		d.get(buf[:])
		if err := d.validate(); err != nil {
			return nil, err
		}
		output = append(output, d.toTriangle())
	}
	return output, nil
}

const stlTriangleSize = 50

// stlHeader defines the STL file header.
type stlHeader struct {
	_     [80]uint8 // Header
	Count uint32    // Number of triangles
}

// stlTriangle defines the triangle data within an STL file.
type stlTriangle struct {
	Normal  [3]float32
	Vertex1 [3]float32
	Vertex2 [3]float32
	Vertex3 [3]float32
	_       uint16 // Attribute byte count
}

func (t stlTriangle) put(b []byte) {
	if len(b) < stlTriangleSize {
		panic("need length 50 to marshal stlTriangle")
	}
	put3F32(b, t.Normal)
	put3F32(b[12:], t.Vertex1)
	put3F32(b[24:], t.Vertex2)
	put3F32(b[36:], t.Vertex3)
	binary.LittleEndian.PutUint16(b[48:], 0)
}

func (t *stlTriangle) get(b []byte) {
	if len(b) < stlTriangleSize {
		panic("need length 50 to unmarshal stlTriangle")
	}
	get3F32(b, &t.Normal)
	get3F32(b[12:], &t.Vertex1)
	get3F32(b[24:], &t.Vertex2)
	get3F32(b[36:], &t.Vertex3)
}

func (t stlTriangle) validate() error {
	if bad3F32(t.Vertex1) || bad3F32(t.Vertex2) || bad3F32(t.Vertex3) {
		return fmt.Errorf("%w: inf/NaN STL triangle vertex", ErrFormat)
	}
	return nil
}

func (t stlTriangle) toTriangle() Triangle {
	return Triangle{
		from3F32(t.Vertex1),
		from3F32(t.Vertex2),
		from3F32(t.Vertex3),
	}
}

var errFloat32 = errors.New("coordinate not representable as float32")

func put3F32(b []byte, f [3]float32) {
	_ = b[11] // early bounds check
	binary.LittleEndian.PutUint32(b, math.Float32bits(f[0]))
	binary.LittleEndian.PutUint32(b[4:], math.Float32bits(f[1]))
	binary.LittleEndian.PutUint32(b[8:], math.Float32bits(f[2]))
}

func get3F32(b []byte, f *[3]float32) {
	_ = b[11] // early bounds check
	f[0] = math.Float32frombits(binary.LittleEndian.Uint32(b))
	f[1] = math.Float32frombits(binary.LittleEndian.Uint32(b[4:]))
	f[2] = math.Float32frombits(binary.LittleEndian.Uint32(b[8:]))
}

// bad3F32 reports NaN and infinite elements, including float64 values
// that overflowed on conversion.
func bad3F32(f [3]float32) bool {
	return math32.IsNaN(f[0]) || math32.IsInf(f[0], 0) ||
		math32.IsNaN(f[1]) || math32.IsInf(f[1], 0) ||
		math32.IsNaN(f[2]) || math32.IsInf(f[2], 0)
}

func to3F32(v r3.Vec) [3]float32 {
	return [3]float32{float32(v.X), float32(v.Y), float32(v.Z)}
}

func from3F32(f [3]float32) r3.Vec {
	return r3.Vec{X: float64(f[0]), Y: float64(f[1]), Z: float64(f[2])}
}
