package meshio

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/soypat/lattice/internal/d3"
	"gonum.org/v1/gonum/spatial/r3"
)

// ReadXYZ reads whitespace separated "x y z" records, one per line.
// Blank lines and lines starting with # are ignored, as is a leading line
// holding a single point count. Columns after the third are ignored.
func ReadXYZ(r io.Reader) ([]r3.Vec, error) {
	var points []r3.Vec
	sc := bufio.NewScanner(r)
	line := 0
	first := true
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || text[0] == '#' {
			continue
		}
		fields := strings.Fields(text)
		if first {
			first = false
			if len(fields) == 1 {
				if _, err := strconv.ParseUint(fields[0], 10, 64); err == nil {
					continue // point count header.
				}
			}
		}
		if len(fields) < 3 {
			return nil, fmt.Errorf("%w: line %d: want 3 coordinates, got %d", ErrFormat, line, len(fields))
		}
		var xyz [3]float64
		for k := range xyz {
			f, err := strconv.ParseFloat(fields[k], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrFormat, line, err)
			}
			xyz[k] = f
		}
		p := r3.Vec{X: xyz[0], Y: xyz[1], Z: xyz[2]}
		if !d3.IsFinite(p) {
			return nil, fmt.Errorf("%w: line %d: non-finite point %v", ErrFormat, line, p)
		}
		points = append(points, p)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return points, nil
}

// WriteXYZ writes points as "x y z" lines with full float64 precision.
func WriteXYZ(w io.Writer, points []r3.Vec) error {
	bw := bufio.NewWriter(w)
	var buf []byte
	for _, p := range points {
		buf = appendVec(buf[:0], p)
		buf = append(buf, '\n')
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func appendVec(b []byte, p r3.Vec) []byte {
	b = strconv.AppendFloat(b, p.X, 'g', -1, 64)
	b = append(b, ' ')
	b = strconv.AppendFloat(b, p.Y, 'g', -1, 64)
	b = append(b, ' ')
	return strconv.AppendFloat(b, p.Z, 'g', -1, 64)
}
