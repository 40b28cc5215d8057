// Package colmap writes and reads points3D sparse reconstruction records, in
// both their binary and text forms. Only geometry and color are carried:
// observation tracks are never written.
package colmap

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
	"github.com/recolude/splatprep/pointcloud"
)

// RecordSize is the number of bytes a Record occupies in the binary form,
// not counting track entries.
const RecordSize = 8 + 3*8 + 3 + 8 + 8

// TrackEntrySize is the width of one (image id, point2D index) observation.
const TrackEntrySize = 4 + 4

// RecordCount is the number of records a conversion produced.
type RecordCount uint64

// Record is one reconstructed 3D point.
type Record struct {
	ID          uint64
	Position    [3]float64
	Color       [3]uint8
	Error       float64
	TrackLength uint64
}

// Put serializes the record into the first RecordSize bytes of b.
func (r Record) Put(b []byte) {
	_ = b[RecordSize-1]
	binary.LittleEndian.PutUint64(b[0:], r.ID)
	binary.LittleEndian.PutUint64(b[8:], math.Float64bits(r.Position[0]))
	binary.LittleEndian.PutUint64(b[16:], math.Float64bits(r.Position[1]))
	binary.LittleEndian.PutUint64(b[24:], math.Float64bits(r.Position[2]))
	b[32] = r.Color[0]
	b[33] = r.Color[1]
	b[34] = r.Color[2]
	binary.LittleEndian.PutUint64(b[35:], math.Float64bits(r.Error))
	binary.LittleEndian.PutUint64(b[43:], r.TrackLength)
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (r Record) MarshalBinary() ([]byte, error) {
	b := make([]byte, RecordSize)
	r.Put(b)
	return b, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. Bytes past
// RecordSize are ignored.
func (r *Record) UnmarshalBinary(b []byte) error {
	if len(b) < RecordSize {
		return errors.Errorf("record needs %d bytes, got %d", RecordSize, len(b))
	}
	r.ID = binary.LittleEndian.Uint64(b[0:])
	r.Position[0] = math.Float64frombits(binary.LittleEndian.Uint64(b[8:]))
	r.Position[1] = math.Float64frombits(binary.LittleEndian.Uint64(b[16:]))
	r.Position[2] = math.Float64frombits(binary.LittleEndian.Uint64(b[24:]))
	r.Color = [3]uint8{b[32], b[33], b[34]}
	r.Error = math.Float64frombits(binary.LittleEndian.Uint64(b[35:]))
	r.TrackLength = binary.LittleEndian.Uint64(b[43:])
	return nil
}

type options struct {
	reprojectionError float64
}

// Option configures record export.
type Option func(*options)

// WithError sets the reprojection error written for every point. It
// defaults to 0.
func WithError(e float64) Option {
	return func(o *options) {
		o.reprojectionError = e
	}
}

func buildOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func record(cloud *pointcloud.PointCloud, i int, o options) Record {
	p := cloud.Positions[i]
	return Record{
		ID:       uint64(i) + 1,
		Position: [3]float64{float64(p.X()), float64(p.Y()), float64(p.Z())},
		Color:    cloud.Colors[i],
		Error:    o.reprojectionError,
	}
}

// Records derives one record per point of the cloud, numbered from 1 in
// cloud order, with an empty track.
func Records(cloud *pointcloud.PointCloud, opts ...Option) []Record {
	o := buildOptions(opts)
	records := make([]Record, cloud.Len())
	for i := range records {
		records[i] = record(cloud, i, o)
	}
	return records
}
