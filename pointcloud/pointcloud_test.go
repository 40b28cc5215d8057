package pointcloud_test

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/recolude/splatprep/pointcloud"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const asciiRGB = `ply
format ascii 1.0
comment three colored points
element vertex 3
property float x
property float y
property float z
property uchar red
property uchar green
property uchar blue
end_header
0 0 0 255 0 0
1 0 0 0 255 0
0 1 0 0 0 255
`

func TestRead_ASCII(t *testing.T) {
	cloud, err := pointcloud.Read(strings.NewReader(asciiRGB))
	require.NoError(t, err)

	require.Equal(t, 3, cloud.Len())
	assert.Equal(t, "rgb", cloud.ColorScheme)
	assert.Equal(t, [3]uint8{255, 0, 0}, cloud.Colors[0])
	assert.Equal(t, [3]uint8{0, 255, 0}, cloud.Colors[1])
	assert.Equal(t, [3]uint8{0, 0, 255}, cloud.Colors[2])

	assert.Equal(t, float32(1), cloud.Positions[1].X())
	assert.Equal(t, float32(1), cloud.Positions[2].Y())
	assert.Equal(t, float32(0), cloud.Positions[2].Z())
}

func binaryPLY(t *testing.T, order binary.ByteOrder, formatName string) []byte {
	t.Helper()

	buf := bytes.Buffer{}
	buf.WriteString("ply\n")
	buf.WriteString("format " + formatName + " 1.0\n")
	buf.WriteString("element camera 1\n")
	buf.WriteString("property list uchar int ids\n")
	buf.WriteString("element vertex 2\n")
	buf.WriteString("property double x\n")
	buf.WriteString("property double y\n")
	buf.WriteString("property double z\n")
	buf.WriteString("property float nx\n")
	buf.WriteString("property uchar r\n")
	buf.WriteString("property uchar g\n")
	buf.WriteString("property uchar b\n")
	buf.WriteString("end_header\n")

	// camera element with a two item list
	require.NoError(t, binary.Write(&buf, order, uint8(2)))
	require.NoError(t, binary.Write(&buf, order, []int32{7, 9}))

	type vertex struct {
		X, Y, Z float64
		NX      float32
		R, G, B uint8
	}
	require.NoError(t, binary.Write(&buf, order, []vertex{
		{X: 1.5, Y: -2.25, Z: 3, NX: 1, R: 10, G: 20, B: 30},
		{X: -0.5, Y: 0.25, Z: 100, NX: 0, R: 200, G: 100, B: 50},
	}))

	return buf.Bytes()
}

func TestRead_BinaryLittleEndian(t *testing.T) {
	cloud, err := pointcloud.Read(bytes.NewReader(binaryPLY(t, binary.LittleEndian, "binary_little_endian")))
	require.NoError(t, err)

	require.Equal(t, 2, cloud.Len())
	assert.Equal(t, "short", cloud.ColorScheme)
	assert.Equal(t, float32(1.5), cloud.Positions[0].X())
	assert.Equal(t, float32(-2.25), cloud.Positions[0].Y())
	assert.Equal(t, float32(100), cloud.Positions[1].Z())
	assert.Equal(t, [3]uint8{200, 100, 50}, cloud.Colors[1])
}

func TestRead_BinaryBigEndian(t *testing.T) {
	cloud, err := pointcloud.Read(bytes.NewReader(binaryPLY(t, binary.BigEndian, "binary_big_endian")))
	require.NoError(t, err)

	require.Equal(t, 2, cloud.Len())
	assert.Equal(t, float32(-0.5), cloud.Positions[1].X())
	assert.Equal(t, [3]uint8{10, 20, 30}, cloud.Colors[0])
}

func TestRead_DiffuseColors(t *testing.T) {
	ply := `ply
format ascii 1.0
element vertex 1
property float x
property float y
property float z
property uchar diffuse_red
property uchar diffuse_green
property uchar diffuse_blue
end_header
1 2 3 4 5 6
`
	cloud, err := pointcloud.Read(strings.NewReader(ply))
	require.NoError(t, err)
	assert.Equal(t, "diffuse", cloud.ColorScheme)
	assert.Equal(t, [3]uint8{4, 5, 6}, cloud.Colors[0])
}

func TestRead_SchemePriority(t *testing.T) {
	ply := `ply
format ascii 1.0
element vertex 1
property float x
property float y
property float z
property uchar r
property uchar g
property uchar b
property uchar red
property uchar green
property uchar blue
end_header
0 0 0 1 2 3 7 8 9
`
	cloud, err := pointcloud.Read(strings.NewReader(ply))
	require.NoError(t, err)
	assert.Equal(t, "rgb", cloud.ColorScheme)
	assert.Equal(t, [3]uint8{7, 8, 9}, cloud.Colors[0])
}

func TestRead_PartialSchemeFallsThrough(t *testing.T) {
	ply := `ply
format ascii 1.0
element vertex 1
property float x
property float y
property float z
property uchar red
property uchar green
end_header
0 0 0 1 2
`
	cloud, err := pointcloud.Read(strings.NewReader(ply))
	require.NoError(t, err)
	assert.Equal(t, "", cloud.ColorScheme)
	assert.Equal(t, pointcloud.DefaultColor, cloud.Colors[0])
}

func TestRead_DefaultColor(t *testing.T) {
	ply := `ply
format ascii 1.0
element vertex 2
property float x
property float y
property float z
end_header
0 0 0
1 1 1
`
	cloud, err := pointcloud.Read(strings.NewReader(ply), pointcloud.WithDefaultColor([3]uint8{12, 34, 56}))
	require.NoError(t, err)

	for _, c := range cloud.Colors {
		assert.Equal(t, [3]uint8{12, 34, 56}, c)
	}
}

func TestRead_ColorClamped(t *testing.T) {
	ply := `ply
format ascii 1.0
element vertex 1
property float x
property float y
property float z
property int red
property int green
property int blue
end_header
0 0 0 -4 300 17
`
	cloud, err := pointcloud.Read(strings.NewReader(ply))
	require.NoError(t, err)
	assert.Equal(t, [3]uint8{0, 255, 17}, cloud.Colors[0])
}

func TestRead_MissingXYZ(t *testing.T) {
	ply := `ply
format ascii 1.0
element vertex 1
property float x
property float y
end_header
0 0
`
	_, err := pointcloud.Read(strings.NewReader(ply))
	require.Error(t, err)

	var formatErr *pointcloud.FormatError
	assert.True(t, errors.As(err, &formatErr))
	assert.Contains(t, err.Error(), `"z"`)
}

func TestRead_NoVertexElement(t *testing.T) {
	ply := `ply
format ascii 1.0
element face 0
property list uchar int vertex_indices
end_header
`
	_, err := pointcloud.Read(strings.NewReader(ply))

	var formatErr *pointcloud.FormatError
	assert.True(t, errors.As(err, &formatErr))
}

func TestRead_BadHeader(t *testing.T) {
	tests := map[string]string{
		"magic":        "plx\nformat ascii 1.0\nend_header\n",
		"format":       "ply\nformat binary_middle_endian 1.0\nend_header\n",
		"no format":    "ply\nelement vertex 0\nend_header\n",
		"type":         "ply\nformat ascii 1.0\nelement vertex 1\nproperty half x\nend_header\n",
		"unterminated": "ply\nformat ascii 1.0\nelement vertex 1\n",
		"count":        "ply\nformat ascii 1.0\nelement vertex -3\nend_header\n",
	}

	for name, ply := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := pointcloud.Read(strings.NewReader(ply))
			var formatErr *pointcloud.FormatError
			assert.True(t, errors.As(err, &formatErr), "got %v", err)
		})
	}
}

func TestRead_TruncatedPayload(t *testing.T) {
	data := binaryPLY(t, binary.LittleEndian, "binary_little_endian")
	_, err := pointcloud.Read(bytes.NewReader(data[:len(data)-5]))

	var formatErr *pointcloud.FormatError
	require.True(t, errors.As(err, &formatErr), "got %v", err)
	assert.Contains(t, err.Error(), "row 1 of 2")
}

func TestRead_HugeDeclaredCount(t *testing.T) {
	ply := "ply\nformat ascii 1.0\nelement vertex 9223372036854775807\nproperty float x\nproperty float y\nproperty float z\nend_header\n" +
		"0 0 0\n"

	var err error
	require.NotPanics(t, func() {
		_, err = pointcloud.Read(strings.NewReader(ply))
	})

	var formatErr *pointcloud.FormatError
	require.True(t, errors.As(err, &formatErr), "got %v", err)
	assert.Contains(t, err.Error(), "row 1 of 9223372036854775807")
}

func TestRead_BadASCIIValue(t *testing.T) {
	ply := strings.Replace(asciiRGB, "1 0 0 0 255 0", "1 0 zero 0 255 0", 1)
	_, err := pointcloud.Read(strings.NewReader(ply))

	var formatErr *pointcloud.FormatError
	assert.True(t, errors.As(err, &formatErr), "got %v", err)
}

func TestIngest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cloud.ply")
	require.NoError(t, os.WriteFile(path, []byte(asciiRGB), 0644))

	cloud, err := pointcloud.Ingest(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cloud.Len())
}

func TestIngest_ErrorsCarryPath(t *testing.T) {
	dir := t.TempDir()

	missing := filepath.Join(dir, "missing.ply")
	_, err := pointcloud.Ingest(missing)
	var ioErr *pointcloud.IOError
	require.True(t, errors.As(err, &ioErr))
	assert.Equal(t, missing, ioErr.Path)

	broken := filepath.Join(dir, "broken.ply")
	require.NoError(t, os.WriteFile(broken, []byte("not a ply\n"), 0644))
	_, err = pointcloud.Ingest(broken)
	var formatErr *pointcloud.FormatError
	require.True(t, errors.As(err, &formatErr))
	assert.Equal(t, broken, formatErr.Path)
	assert.Contains(t, err.Error(), broken)
}

func TestNew(t *testing.T) {
	_, err := pointcloud.New(nil, make([][3]uint8, 1))
	assert.Error(t, err)

	cloud, err := pointcloud.New(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, cloud.Len())
}
