package colmap

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/recolude/splatprep/pointcloud"
	"github.com/shopspring/decimal"
)

// EncodeText writes the cloud in the points3D text form: a few comment lines
// then "id x y z r g b error" per point. The track field is omitted.
func EncodeText(cloud *pointcloud.PointCloud, w io.Writer, opts ...Option) (RecordCount, error) {
	o := buildOptions(opts)
	return writeText(w, cloud.Len(), func(i int) Record {
		return record(cloud, i, o)
	})
}

// WriteText writes already built records in the text form.
func WriteText(records []Record, w io.Writer) (RecordCount, error) {
	return writeText(w, len(records), func(i int) Record {
		return records[i]
	})
}

func writeText(w io.Writer, count int, next func(i int) Record) (RecordCount, error) {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "# 3D point list with one line of data per point:")
	fmt.Fprintln(bw, "#   POINT3D_ID, X, Y, Z, R, G, B, ERROR")
	fmt.Fprintf(bw, "# Number of points: %d\n", count)

	line := make([]byte, 0, 128)
	for i := 0; i < count; i++ {
		line = appendTextRecord(line[:0], next(i))
		if _, err := bw.Write(line); err != nil {
			return RecordCount(i), &pointcloud.IOError{Op: "write", Err: err}
		}
		if (i+1)%progressInterval == 0 {
			glog.V(1).Infof("wrote %d / %d points", i+1, count)
		}
	}

	if err := bw.Flush(); err != nil {
		return RecordCount(count), &pointcloud.IOError{Op: "write", Err: err}
	}
	return RecordCount(count), nil
}

func appendTextRecord(b []byte, r Record) []byte {
	b = strconv.AppendUint(b, r.ID, 10)
	for _, v := range r.Position {
		b = append(b, ' ')
		b = append(b, formatNumber(v)...)
	}
	for _, c := range r.Color {
		b = append(b, ' ')
		b = strconv.AppendUint(b, uint64(c), 10)
	}
	b = append(b, ' ')
	b = append(b, formatNumber(r.Error)...)
	return append(b, '\n')
}

// formatNumber prints v without an exponent. Values that came from float32
// coordinates print at float32 precision, so 0.1f is "0.1" and not
// "0.10000000149011612". Non-finite values print as nan, inf and -inf, which
// ReadText parses back.
func formatNumber(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	if f := float32(v); float64(f) == v {
		return decimal.NewFromFloat32(f).String()
	}
	return decimal.NewFromFloat(v).String()
}

// ReadText parses the points3D text form. Comment and blank lines are
// skipped. Any track pairs after the error column are dropped, and the
// returned records have a track length of 0.
func ReadText(r io.Reader) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	records := make([]Record, 0)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		rec, err := parseTextRecord(strings.Fields(line))
		if err != nil {
			return nil, &pointcloud.FormatError{Err: errors.Wrapf(err, "line %d", lineNumber)}
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, &pointcloud.IOError{Op: "read", Err: err}
	}

	return records, nil
}

func parseTextRecord(fields []string) (Record, error) {
	if len(fields) < 8 {
		return Record{}, errors.Errorf("expected at least 8 fields, got %d", len(fields))
	}
	if (len(fields)-8)%2 != 0 {
		return Record{}, errors.New("track has an odd number of values")
	}

	var rec Record
	var err error

	if rec.ID, err = strconv.ParseUint(fields[0], 10, 64); err != nil {
		return Record{}, errors.Wrap(err, "point id")
	}
	if rec.ID == 0 {
		return Record{}, errors.New("point id must be at least 1")
	}

	for i := range rec.Position {
		if rec.Position[i], err = strconv.ParseFloat(fields[1+i], 64); err != nil {
			return Record{}, errors.Wrapf(err, "coordinate %d", i)
		}
	}

	for i := range rec.Color {
		c, err := strconv.ParseUint(fields[4+i], 10, 8)
		if err != nil {
			return Record{}, errors.Wrapf(err, "color channel %d", i)
		}
		rec.Color[i] = uint8(c)
	}

	if rec.Error, err = strconv.ParseFloat(fields[7], 64); err != nil {
		return Record{}, errors.Wrap(err, "error")
	}

	return rec, nil
}
