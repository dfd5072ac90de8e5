package meshio

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/soypat/lattice"
)

// WritePLY writes l as a binary little endian PLY file with a float32
// vertex element and an int32 edge element.
func WritePLY(w io.Writer, l lattice.Lattice) error {
	if l.NumVertices() > math.MaxInt32 {
		return fmt.Errorf("%w: %d vertices overflow PLY int indices", ErrFormat, l.NumVertices())
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "ply\n"+
		"format binary_little_endian 1.0\n"+
		"comment voronoi lattice\n"+
		"element vertex %d\n"+
		"property float x\n"+
		"property float y\n"+
		"property float z\n"+
		"element edge %d\n"+
		"property int vertex1\n"+
		"property int vertex2\n"+
		"end_header\n", l.NumVertices(), l.NumEdges())
	var b [12]byte
	for i, v := range l.Vertices {
		f := to3F32(v)
		if bad3F32(f) {
			return fmt.Errorf("vertex %d: %w", i, errFloat32)
		}
		put3F32(b[:], f)
		bw.Write(b[:])
	}
	for _, e := range l.Edges {
		binary.LittleEndian.PutUint32(b[:], uint32(int32(e[0])))
		binary.LittleEndian.PutUint32(b[4:], uint32(int32(e[1])))
		bw.Write(b[:8])
	}
	return bw.Flush()
}
