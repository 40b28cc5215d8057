package colmap

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/recolude/splatprep/pointcloud"
)

const progressInterval = 100000

// EncodeBinary writes the cloud as a points3D binary stream: a little endian
// uint64 count followed by one fixed width record per point with an empty
// track.
func EncodeBinary(cloud *pointcloud.PointCloud, w io.Writer, opts ...Option) (RecordCount, error) {
	o := buildOptions(opts)
	return writeBinary(w, cloud.Len(), func(i int) Record {
		return record(cloud, i, o)
	})
}

// WriteBinary writes already built records in the binary form. Tracks are
// dropped: every record is written with a track length of 0.
func WriteBinary(records []Record, w io.Writer) (RecordCount, error) {
	return writeBinary(w, len(records), func(i int) Record {
		r := records[i]
		r.TrackLength = 0
		return r
	})
}

func writeBinary(w io.Writer, count int, next func(i int) Record) (RecordCount, error) {
	bw := bufio.NewWriter(w)

	var buf [RecordSize]byte
	binary.LittleEndian.PutUint64(buf[:8], uint64(count))
	if _, err := bw.Write(buf[:8]); err != nil {
		return 0, &pointcloud.IOError{Op: "write", Err: err}
	}

	for i := 0; i < count; i++ {
		next(i).Put(buf[:])
		if _, err := bw.Write(buf[:]); err != nil {
			return RecordCount(i), &pointcloud.IOError{Op: "write", Err: err}
		}
		if (i+1)%progressInterval == 0 {
			glog.V(1).Infof("encoded %d / %d points", i+1, count)
		}
	}

	if err := bw.Flush(); err != nil {
		return RecordCount(count), &pointcloud.IOError{Op: "write", Err: err}
	}
	return RecordCount(count), nil
}

// DecodeBinary reads a points3D binary stream. Track entries of files written
// by other tools are skipped, but the records keep their track length.
func DecodeBinary(r io.Reader) ([]Record, error) {
	br := bufio.NewReader(r)

	var buf [RecordSize]byte
	if _, err := io.ReadFull(br, buf[:8]); err != nil {
		return nil, decodeError(err, "point count")
	}
	count := binary.LittleEndian.Uint64(buf[:8])

	capacity := count
	if capacity > 1<<20 {
		capacity = 1 << 20
	}
	records := make([]Record, 0, capacity)

	for i := uint64(0); i < count; i++ {
		if _, err := io.ReadFull(br, buf[:]); err != nil {
			return nil, decodeError(err, "record %d of %d", i+1, count)
		}

		var rec Record
		if err := rec.UnmarshalBinary(buf[:]); err != nil {
			return nil, &pointcloud.FormatError{Err: err}
		}

		if rec.TrackLength > math.MaxInt64/TrackEntrySize {
			return nil, &pointcloud.FormatError{Err: errors.Errorf("record %d: track length %d out of range", rec.ID, rec.TrackLength)}
		}
		if rec.TrackLength > 0 {
			skip := int64(rec.TrackLength) * TrackEntrySize
			if _, err := io.CopyN(io.Discard, br, skip); err != nil {
				return nil, decodeError(err, "track of record %d", rec.ID)
			}
		}

		records = append(records, rec)
	}

	return records, nil
}

func decodeError(err error, format string, args ...interface{}) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return &pointcloud.FormatError{Err: errors.Wrapf(io.ErrUnexpectedEOF, format, args...)}
	}
	return &pointcloud.IOError{Op: "read", Err: errors.Wrapf(err, format, args...)}
}
