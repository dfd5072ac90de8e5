package meshio

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/soypat/lattice"
	"gonum.org/v1/gonum/spatial/r3"
)

// WriteOBJ writes l as a Wavefront OBJ file of "v" vertex and "l" line
// records. OBJ indices start at 1.
func WriteOBJ(w io.Writer, l lattice.Lattice) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# %d vertices %d edges\n", l.NumVertices(), l.NumEdges())
	var buf []byte
	for _, v := range l.Vertices {
		buf = append(buf[:0], "v "...)
		buf = appendVec(buf, v)
		buf = append(buf, '\n')
		bw.Write(buf)
	}
	for _, e := range l.Edges {
		buf = append(buf[:0], "l "...)
		buf = strconv.AppendInt(buf, int64(e[0]+1), 10)
		buf = append(buf, ' ')
		buf = strconv.AppendInt(buf, int64(e[1]+1), 10)
		buf = append(buf, '\n')
		bw.Write(buf)
	}
	return bw.Flush()
}

// ReadOBJ reads the "v" and "l" records of a Wavefront OBJ file into a
// lattice. Polylines are split into edges and negative (relative) indices
// are resolved. Other records are ignored. The result is not validated.
func ReadOBJ(r io.Reader) (lattice.Lattice, error) {
	var l lattice.Lattice
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return l, fmt.Errorf("%w: line %d: short vertex record", ErrFormat, line)
			}
			var xyz [3]float64
			for k := range xyz {
				f, err := strconv.ParseFloat(fields[k+1], 64)
				if err != nil {
					return l, fmt.Errorf("%w: line %d: %v", ErrFormat, line, err)
				}
				xyz[k] = f
			}
			l.Vertices = append(l.Vertices, r3.Vec{X: xyz[0], Y: xyz[1], Z: xyz[2]})
		case "l":
			if len(fields) < 3 {
				return l, fmt.Errorf("%w: line %d: line record needs 2 indices", ErrFormat, line)
			}
			prev := -1
			for _, f := range fields[1:] {
				// "l v/vt" records carry texture indices after a slash.
				f, _, _ = strings.Cut(f, "/")
				idx, err := strconv.Atoi(f)
				if err != nil || idx == 0 {
					return l, fmt.Errorf("%w: line %d: bad index %q", ErrFormat, line, f)
				}
				if idx < 0 {
					idx += len(l.Vertices)
				} else {
					idx--
				}
				if idx < 0 {
					return l, fmt.Errorf("%w: line %d: index %q before first vertex", ErrFormat, line, f)
				}
				if prev >= 0 {
					l.Edges = append(l.Edges, lattice.Edge{prev, idx})
				}
				prev = idx
			}
		}
	}
	return l, sc.Err()
}
