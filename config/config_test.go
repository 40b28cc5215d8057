package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/recolude/splatprep/config"
	"github.com/recolude/splatprep/gaussian"
	"github.com/recolude/splatprep/pointcloud"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, [3]uint8{255, 255, 255}, cfg.Ingest.DefaultColor)
	assert.Equal(t, 0.0, cfg.Points.Error)
	assert.Equal(t, gaussian.UniformScale(0.01), cfg.Gaussian.Scale)
	assert.Equal(t, 0.8, cfg.Gaussian.Opacity)
	assert.Equal(t, 0, cfg.Gaussian.SHDegree)
	assert.Equal(t, gaussian.Binary, cfg.Gaussian.Format())
}

func TestParse_Empty(t *testing.T) {
	cfg, err := config.Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestParse_ScalarScale(t *testing.T) {
	cfg, err := config.Parse([]byte(`
[ingest]
default_color = [10, 20, 30]

[points]
error = 1.0

[gaussian]
scale = 0.03
opacity = 0.5
sh_degree = 3
ascii = true
`))
	require.NoError(t, err)

	assert.Equal(t, [3]uint8{10, 20, 30}, cfg.Ingest.DefaultColor)
	assert.Equal(t, 1.0, cfg.Points.Error)
	assert.Equal(t, gaussian.UniformScale(0.03), cfg.Gaussian.Scale)
	assert.Equal(t, gaussian.Config{Scale: gaussian.UniformScale(0.03), Opacity: 0.5, SHDegree: 3}, cfg.Gaussian.Synthesis())
	assert.Equal(t, gaussian.ASCII, cfg.Gaussian.Format())
}

func TestParse_VectorScale(t *testing.T) {
	cfg, err := config.Parse([]byte(`
[gaussian]
scale = [0.01, 0.02, 0.04]
`))
	require.NoError(t, err)
	assert.Equal(t, [3]float64{0.01, 0.02, 0.04}, cfg.Gaussian.Scale)
	assert.Equal(t, 0.8, cfg.Gaussian.Opacity)
}

func TestParse_IntegerScale(t *testing.T) {
	cfg, err := config.Parse([]byte("[gaussian]\nscale = 1\n"))
	require.NoError(t, err)
	assert.Equal(t, gaussian.UniformScale(1), cfg.Gaussian.Scale)
}

func TestParse_InvalidValues(t *testing.T) {
	tests := map[string]string{
		"two scales":   "[gaussian]\nscale = [0.1, 0.2]\n",
		"string scale": "[gaussian]\nscale = \"big\"\n",
		"opacity":      "[gaussian]\nopacity = 1.5\n",
		"degree":       "[gaussian]\nsh_degree = -1\n",
		"float degree": "[gaussian]\nsh_degree = 1.5\n",
		"huge degree":  "[gaussian]\nsh_degree = 9223372036854775807\n",
		"ascii":        "[gaussian]\nascii = 1\n",
		"color range":  "[ingest]\ndefault_color = [0, 256, 0]\n",
		"color count":  "[ingest]\ndefault_color = [0, 0]\n",
		"error type":   "[points]\nerror = \"none\"\n",
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := config.Parse([]byte(doc))
			var valueErr *pointcloud.ValueError
			assert.True(t, errors.As(err, &valueErr), "got %v", err)
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	_, err := config.Parse([]byte("[gaussian\nscale = "))
	var formatErr *pointcloud.FormatError
	assert.True(t, errors.As(err, &formatErr), "got %v", err)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "splatprep.toml")
	require.NoError(t, os.WriteFile(path, []byte("[gaussian]\nopacity = 0.25\n"), 0644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.25, cfg.Gaussian.Opacity)

	_, err = config.Load(filepath.Join(dir, "missing.toml"))
	var ioErr *pointcloud.IOError
	assert.True(t, errors.As(err, &ioErr))
}
