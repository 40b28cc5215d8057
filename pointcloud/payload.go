package pointcloud

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"strconv"

	"github.com/pkg/errors"
)

// valueReader yields the next scalar of the payload as a float64, whatever
// its encoding.
type valueReader interface {
	read(t scalarType) (float64, error)
}

func newValueReader(format payloadFormat, r *bufio.Reader) valueReader {
	switch format {
	case formatBinaryLittleEndian:
		return &binaryValueReader{r: r, order: binary.LittleEndian}
	case formatBinaryBigEndian:
		return &binaryValueReader{r: r, order: binary.BigEndian}
	}
	return &asciiValueReader{r: r}
}

type binaryValueReader struct {
	r     *bufio.Reader
	order binary.ByteOrder
	buf   [8]byte
}

func (b *binaryValueReader) read(t scalarType) (float64, error) {
	buf := b.buf[:t.size()]
	if _, err := io.ReadFull(b.r, buf); err != nil {
		return 0, err
	}

	switch t {
	case scalarInt8:
		return float64(int8(buf[0])), nil
	case scalarUint8:
		return float64(buf[0]), nil
	case scalarInt16:
		return float64(int16(b.order.Uint16(buf))), nil
	case scalarUint16:
		return float64(b.order.Uint16(buf)), nil
	case scalarInt32:
		return float64(int32(b.order.Uint32(buf))), nil
	case scalarUint32:
		return float64(b.order.Uint32(buf)), nil
	case scalarFloat32:
		return float64(math.Float32frombits(b.order.Uint32(buf))), nil
	}
	return math.Float64frombits(b.order.Uint64(buf)), nil
}

type asciiValueReader struct {
	r   *bufio.Reader
	tok []byte
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

func (a *asciiValueReader) token() (string, error) {
	a.tok = a.tok[:0]
	for {
		c, err := a.r.ReadByte()
		if err != nil {
			if err == io.EOF && len(a.tok) > 0 {
				return string(a.tok), nil
			}
			return "", err
		}
		if isSpace(c) {
			if len(a.tok) > 0 {
				return string(a.tok), nil
			}
			continue
		}
		a.tok = append(a.tok, c)
	}
}

func (a *asciiValueReader) read(t scalarType) (float64, error) {
	tok, err := a.token()
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, formatErrorf("invalid %s value %q", t.name(), tok)
	}
	return v, nil
}

func (t scalarType) name() string {
	switch t {
	case scalarInt8:
		return "char"
	case scalarUint8:
		return "uchar"
	case scalarInt16:
		return "short"
	case scalarUint16:
		return "ushort"
	case scalarInt32:
		return "int"
	case scalarUint32:
		return "uint"
	case scalarFloat32:
		return "float"
	}
	return "double"
}

// readElement reads every row of e. For each row, scalar property values are
// stored at their property index in row and visit is called; list properties
// are consumed and left as NaN.
func readElement(vr valueReader, e element, visit func(i int, row []float64)) error {
	row := make([]float64, len(e.properties))
	for i := 0; i < e.count; i++ {
		for pi, p := range e.properties {
			if !p.list {
				v, err := vr.read(p.typ)
				if err != nil {
					return payloadError(e, i, err)
				}
				row[pi] = v
				continue
			}

			count, err := vr.read(p.countType)
			if err != nil {
				return payloadError(e, i, err)
			}
			if count < 0 {
				return formatErrorf("element %s row %d: negative list length %v", e.name, i, count)
			}
			for j := 0; j < int(count); j++ {
				if _, err := vr.read(p.typ); err != nil {
					return payloadError(e, i, err)
				}
			}
			row[pi] = math.NaN()
		}

		if visit != nil {
			visit(i, row)
		}
	}
	return nil
}

func payloadError(e element, i int, err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return formatErrorf("element %s: payload ends at row %d of %d", e.name, i, e.count)
	}
	var formatErr *FormatError
	if errors.As(err, &formatErr) {
		formatErr.Err = errors.Wrapf(formatErr.Err, "element %s row %d", e.name, i)
		return formatErr
	}
	return &IOError{Op: "read", Err: err}
}
