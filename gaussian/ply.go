package gaussian

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/pkg/errors"
	"github.com/recolude/splatprep/pointcloud"
)

// Format selects the PLY payload encoding.
type Format int

const (
	Binary Format = iota
	ASCII
)

func (f Format) String() string {
	if f == ASCII {
		return "ascii"
	}
	return "binary_little_endian"
}

// Properties lists the vertex property names of a gaussian PLY at the given
// SH degree, in file order. Renderers look properties up by these names and
// expect this order.
func Properties(degree int) []string {
	restCount := 3 * RestCount(degree)
	names := make([]string, 0, 17+restCount)
	names = append(names, "x", "y", "z", "nx", "ny", "nz", "f_dc_0", "f_dc_1", "f_dc_2")
	for i := 0; i < restCount; i++ {
		names = append(names, "f_rest_"+strconv.Itoa(i))
	}
	names = append(names, "opacity", "scale_0", "scale_1", "scale_2", "rot_0", "rot_1", "rot_2", "rot_3")
	return names
}

// values appends the point's properties in Properties order.
func (p Point) values(dst []float32) []float32 {
	dst = append(dst, p.Position[:]...)
	dst = append(dst, p.Normal[:]...)
	dst = append(dst, p.DC[:]...)
	dst = append(dst, p.Rest...)
	dst = append(dst, p.Opacity)
	dst = append(dst, p.Scale[:]...)
	return append(dst, p.Rotation[:]...)
}

// WritePLY writes the set as a single vertex element PLY with every property
// stored as a float.
func WritePLY(w io.Writer, set *PointSet, format Format) error {
	bw := bufio.NewWriter(w)

	names := Properties(set.SHDegree)
	fmt.Fprintln(bw, "ply")
	fmt.Fprintf(bw, "format %s 1.0\n", format)
	fmt.Fprintf(bw, "element vertex %d\n", set.Len())
	for _, name := range names {
		fmt.Fprintf(bw, "property float %s\n", name)
	}
	fmt.Fprintln(bw, "end_header")

	values := make([]float32, 0, len(names))
	line := make([]byte, 0, 16*len(names))
	for i, p := range set.Points {
		values = p.values(values[:0])
		if len(values) != len(names) {
			return errors.Errorf("gaussian %d has %d values, header declares %d", i, len(values), len(names))
		}

		line = line[:0]
		if format == ASCII {
			for j, v := range values {
				if j > 0 {
					line = append(line, ' ')
				}
				line = strconv.AppendFloat(line, float64(v), 'g', -1, 32)
			}
			line = append(line, '\n')
		} else {
			for _, v := range values {
				line = binary.LittleEndian.AppendUint32(line, math.Float32bits(v))
			}
		}

		if _, err := bw.Write(line); err != nil {
			return &pointcloud.IOError{Op: "write", Err: err}
		}
	}

	if err := bw.Flush(); err != nil {
		return &pointcloud.IOError{Op: "write", Err: err}
	}
	return nil
}
