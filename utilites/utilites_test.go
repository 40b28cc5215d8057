package utilites_test

import (
	"bytes"
	"testing"

	"github.com/EliCDavis/vector/vector3"
	"github.com/recolude/splatprep/gaussian"
	"github.com/recolude/splatprep/pointcloud"
	"github.com/recolude/splatprep/utilites"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cloud(t *testing.T) *pointcloud.PointCloud {
	t.Helper()
	pc, err := pointcloud.New(
		[]vector3.Vector[float32]{
			vector3.New[float32](0, 0, 0),
			vector3.New[float32](1, 0, 0),
			vector3.New[float32](0, 1, 0),
		},
		[][3]uint8{
			{255, 0, 0},
			{0, 255, 0},
			{0, 0, 255},
		},
	)
	require.NoError(t, err)
	return pc
}

func TestCloudToPLY(t *testing.T) {
	data, err := utilites.CloudToPLY(cloud(t))
	require.NoError(t, err)

	back, err := pointcloud.Read(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, 3, back.Len())
	assert.InDelta(t, 1, back.Positions[1].X(), 1e-6)
	assert.InDelta(t, 1, back.Positions[2].Y(), 1e-6)
}

func TestBundleRecording(t *testing.T) {
	recording, err := utilites.BundleRecording(cloud(t), utilites.BundleOptions{
		Name:           "test cloud",
		Gaussian:       gaussian.DefaultConfig(),
		GaussianFormat: gaussian.Binary,
	})
	require.NoError(t, err)

	assert.Equal(t, "test cloud", recording.Name())

	names := make([]string, 0)
	for _, b := range recording.Binaries() {
		names = append(names, b.Name())
	}
	assert.Equal(t, []string{
		utilites.CloudBinaryName,
		utilites.PointsBinaryName,
		utilites.PointsTextName,
		utilites.GaussianBinaryName,
	}, names)

	out := bytes.Buffer{}
	require.NoError(t, utilites.WriteRecording(&out, recording))
	assert.NotZero(t, out.Len())
}

func TestBundleRecording_InvalidGaussian(t *testing.T) {
	_, err := utilites.BundleRecording(cloud(t), utilites.BundleOptions{
		Gaussian: gaussian.Config{Opacity: 2},
	})
	assert.Error(t, err)
}
