// Package pointcloud reads colored point clouds out of PLY files.
package pointcloud

import (
	"bufio"
	"io"
	"os"

	"github.com/EliCDavis/vector/vector3"
	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// PointCloud is an ordered set of colored points. A point's index is its
// identity; writers number points by position starting at 1.
type PointCloud struct {
	Positions []vector3.Vector[float32]
	Colors    [][3]uint8

	// ColorScheme names the matched color scheme, empty when every point was
	// given the default color.
	ColorScheme string
}

// New builds a point cloud out of matching position and color columns.
func New(positions []vector3.Vector[float32], colors [][3]uint8) (*PointCloud, error) {
	if len(positions) != len(colors) {
		return nil, errors.Errorf("%d positions but %d colors", len(positions), len(colors))
	}
	return &PointCloud{Positions: positions, Colors: colors}, nil
}

// Len is the number of points in the cloud.
func (pc *PointCloud) Len() int {
	return len(pc.Positions)
}

const maxPreallocatedPoints = 1 << 20

type options struct {
	defaultColor [3]uint8
	schemes      []ColorScheme
}

// Option configures ingestion.
type Option func(*options)

// WithDefaultColor sets the color given to every point when the file has no
// recognized color fields.
func WithDefaultColor(c [3]uint8) Option {
	return func(o *options) {
		o.defaultColor = c
	}
}

// WithColorSchemes overrides the prioritized list of color naming schemes.
func WithColorSchemes(schemes []ColorScheme) Option {
	return func(o *options) {
		o.schemes = schemes
	}
}

// Ingest reads the vertex element of the PLY file at path.
func Ingest(path string, opts ...Option) (*PointCloud, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	cloud, err := Read(f, opts...)
	if err != nil {
		return nil, WithPath(err, "read", path)
	}
	return cloud, nil
}

// Read parses a PLY stream, ASCII or binary, and returns its vertices. The
// header is validated for x, y and z before any vertex data is read.
func Read(r io.Reader, opts ...Option) (*PointCloud, error) {
	o := options{
		defaultColor: DefaultColor,
		schemes:      ColorSchemes,
	}
	for _, opt := range opts {
		opt(&o)
	}

	br := bufio.NewReader(r)
	h, err := readHeader(br)
	if err != nil {
		return nil, err
	}

	vertex, vertexIndex, ok := h.element("vertex")
	if !ok {
		return nil, formatErrorf("no vertex element")
	}

	xyz := [3]int{vertex.propertyIndex("x"), vertex.propertyIndex("y"), vertex.propertyIndex("z")}
	for i, idx := range xyz {
		if idx < 0 {
			return nil, formatErrorf("vertex element lacks %q, has %v", "xyz"[i:i+1], vertex.scalarNames())
		}
	}

	var rgb [3]int
	scheme, hasColor := ResolveColorScheme(o.schemes, vertex.scalarNames())
	if hasColor {
		for i, field := range scheme.Fields {
			rgb[i] = vertex.propertyIndex(field)
		}
		glog.V(1).Infof("reading %d vertices (%s) with %s colors", vertex.count, h.format, scheme.Name)
	} else {
		glog.V(1).Infof("reading %d vertices (%s) without colors, using default %v", vertex.count, h.format, o.defaultColor)
	}

	vr := newValueReader(h.format, br)
	for _, e := range h.elements[:vertexIndex] {
		if err := readElement(vr, e, nil); err != nil {
			return nil, err
		}
	}

	// the header count is untrusted until the rows arrive
	capacity := vertex.count
	if capacity > maxPreallocatedPoints {
		capacity = maxPreallocatedPoints
	}
	cloud := &PointCloud{
		Positions: make([]vector3.Vector[float32], 0, capacity),
		Colors:    make([][3]uint8, 0, capacity),
	}
	if hasColor {
		cloud.ColorScheme = scheme.Name
	}

	err = readElement(vr, vertex, func(i int, row []float64) {
		cloud.Positions = append(cloud.Positions, vector3.New(
			float32(row[xyz[0]]),
			float32(row[xyz[1]]),
			float32(row[xyz[2]]),
		))
		if hasColor {
			cloud.Colors = append(cloud.Colors, [3]uint8{
				colorChannel(row[rgb[0]]),
				colorChannel(row[rgb[1]]),
				colorChannel(row[rgb[2]]),
			})
		} else {
			cloud.Colors = append(cloud.Colors, o.defaultColor)
		}
	})
	if err != nil {
		return nil, err
	}

	return cloud, nil
}
