package pointcloud

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type payloadFormat int

const (
	formatASCII payloadFormat = iota
	formatBinaryLittleEndian
	formatBinaryBigEndian
)

func (f payloadFormat) String() string {
	switch f {
	case formatASCII:
		return "ascii"
	case formatBinaryLittleEndian:
		return "binary_little_endian"
	case formatBinaryBigEndian:
		return "binary_big_endian"
	}
	return "unknown"
}

func parsePayloadFormat(s string) (payloadFormat, bool) {
	switch s {
	case "ascii":
		return formatASCII, true
	case "binary_little_endian":
		return formatBinaryLittleEndian, true
	case "binary_big_endian":
		return formatBinaryBigEndian, true
	}
	return 0, false
}

type scalarType int

const (
	scalarInt8 scalarType = iota
	scalarUint8
	scalarInt16
	scalarUint16
	scalarInt32
	scalarUint32
	scalarFloat32
	scalarFloat64
)

var scalarTypes = map[string]scalarType{
	"char":    scalarInt8,
	"int8":    scalarInt8,
	"uchar":   scalarUint8,
	"uint8":   scalarUint8,
	"short":   scalarInt16,
	"int16":   scalarInt16,
	"ushort":  scalarUint16,
	"uint16":  scalarUint16,
	"int":     scalarInt32,
	"int32":   scalarInt32,
	"uint":    scalarUint32,
	"uint32":  scalarUint32,
	"float":   scalarFloat32,
	"float32": scalarFloat32,
	"double":  scalarFloat64,
	"float64": scalarFloat64,
}

func (t scalarType) size() int {
	switch t {
	case scalarInt8, scalarUint8:
		return 1
	case scalarInt16, scalarUint16:
		return 2
	case scalarInt32, scalarUint32, scalarFloat32:
		return 4
	}
	return 8
}

type property struct {
	name string
	typ  scalarType

	// list properties are prefixed by a count of countType
	list      bool
	countType scalarType
}

type element struct {
	name       string
	count      int
	properties []property
}

func (e element) propertyIndex(name string) int {
	for i, p := range e.properties {
		if p.name == name && !p.list {
			return i
		}
	}
	return -1
}

func (e element) scalarNames() []string {
	names := make([]string, 0, len(e.properties))
	for _, p := range e.properties {
		if !p.list {
			names = append(names, p.name)
		}
	}
	return names
}

type header struct {
	format   payloadFormat
	elements []element
	comments []string
}

func (h header) element(name string) (element, int, bool) {
	for i, e := range h.elements {
		if e.name == name {
			return e, i, true
		}
	}
	return element{}, -1, false
}

func readHeaderLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		if err == io.EOF {
			return "", errors.New("unexpected end of file in header")
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// readHeader consumes everything up to and including end_header, leaving r
// positioned at the first payload byte.
func readHeader(r *bufio.Reader) (*header, error) {
	magic, err := readHeaderLine(r)
	if err != nil {
		return nil, &FormatError{Err: err}
	}
	if strings.TrimSpace(magic) != "ply" {
		return nil, formatErrorf("missing ply magic number, found %q", magic)
	}

	h := &header{}
	formatSeen := false
	for {
		line, err := readHeaderLine(r)
		if err != nil {
			return nil, &FormatError{Err: err}
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "format":
			if len(fields) != 3 {
				return nil, formatErrorf("malformed format line %q", line)
			}
			f, ok := parsePayloadFormat(fields[1])
			if !ok {
				return nil, formatErrorf("unsupported format %q", fields[1])
			}
			h.format = f
			formatSeen = true

		case "comment", "obj_info":
			h.comments = append(h.comments, strings.TrimSpace(strings.TrimPrefix(line, fields[0])))

		case "element":
			if len(fields) != 3 {
				return nil, formatErrorf("malformed element line %q", line)
			}
			count, err := strconv.Atoi(fields[2])
			if err != nil || count < 0 {
				return nil, formatErrorf("invalid element count %q", fields[2])
			}
			h.elements = append(h.elements, element{name: fields[1], count: count})

		case "property":
			if len(h.elements) == 0 {
				return nil, formatErrorf("property declared before any element: %q", line)
			}
			p, err := parseProperty(fields)
			if err != nil {
				return nil, &FormatError{Err: errors.Wrapf(err, "line %q", line)}
			}
			last := &h.elements[len(h.elements)-1]
			last.properties = append(last.properties, p)

		case "end_header":
			if !formatSeen {
				return nil, formatErrorf("header has no format line")
			}
			return h, nil

		default:
			return nil, formatErrorf("unrecognized header line %q", line)
		}
	}
}

func parseProperty(fields []string) (property, error) {
	if len(fields) >= 2 && fields[1] == "list" {
		if len(fields) != 5 {
			return property{}, errors.New("malformed list property")
		}
		countType, ok := scalarTypes[fields[2]]
		if !ok {
			return property{}, errors.Errorf("unknown type %q", fields[2])
		}
		itemType, ok := scalarTypes[fields[3]]
		if !ok {
			return property{}, errors.Errorf("unknown type %q", fields[3])
		}
		return property{name: fields[4], typ: itemType, list: true, countType: countType}, nil
	}

	if len(fields) != 3 {
		return property{}, errors.New("malformed property")
	}
	t, ok := scalarTypes[fields[1]]
	if !ok {
		return property{}, errors.Errorf("unknown type %q", fields[1])
	}
	return property{name: fields[2], typ: t}, nil
}
