// Package config loads conversion settings from a TOML file.
//
// Example:
//
//	[ingest]
//	default_color = [255, 255, 255]
//
//	[points]
//	error = 0.0
//
//	[gaussian]
//	scale = 0.01          # or one value per axis: [0.01, 0.01, 0.02]
//	opacity = 0.8
//	sh_degree = 0
//	ascii = false
package config

import (
	"os"

	toml "github.com/pelletier/go-toml"
	"github.com/pkg/errors"
	"github.com/recolude/splatprep/gaussian"
	"github.com/recolude/splatprep/pointcloud"
)

// Ingest holds PLY reading settings.
type Ingest struct {
	DefaultColor [3]uint8
}

// Points holds points3D record settings.
type Points struct {
	Error float64
}

// Gaussian holds gaussian synthesis and output settings.
type Gaussian struct {
	Scale    [3]float64
	Opacity  float64
	SHDegree int
	ASCII    bool
}

// Synthesis returns the synthesizer settings.
func (g Gaussian) Synthesis() gaussian.Config {
	return gaussian.Config{
		Scale:    g.Scale,
		Opacity:  g.Opacity,
		SHDegree: g.SHDegree,
	}
}

// Format returns the PLY encoding to write gaussians with.
func (g Gaussian) Format() gaussian.Format {
	if g.ASCII {
		return gaussian.ASCII
	}
	return gaussian.Binary
}

// Config is the full set of conversion settings.
type Config struct {
	Ingest   Ingest
	Points   Points
	Gaussian Gaussian
}

// Default is white for uncolored points, a zero reprojection error, and 1cm
// gaussians at 0.8 opacity written as binary with DC color only.
func Default() Config {
	g := gaussian.DefaultConfig()
	return Config{
		Ingest: Ingest{DefaultColor: pointcloud.DefaultColor},
		Points: Points{Error: 0},
		Gaussian: Gaussian{
			Scale:    g.Scale,
			Opacity:  g.Opacity,
			SHDegree: g.SHDegree,
		},
	}
}

// Load reads the TOML file at path over the defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &pointcloud.IOError{Op: "read", Path: path, Err: err}
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, pointcloud.WithPath(err, "read", path)
	}
	return cfg, nil
}

// Parse reads TOML settings over the defaults. Keys that are absent keep
// their default value.
func Parse(data []byte) (Config, error) {
	tree, err := toml.LoadBytes(data)
	if err != nil {
		return Config{}, &pointcloud.FormatError{Err: errors.Wrap(err, "parsing config")}
	}

	cfg := Default()

	if v := tree.Get("ingest.default_color"); v != nil {
		values, err := numbers("ingest.default_color", v, 3)
		if err != nil {
			return Config{}, err
		}
		for i, c := range values {
			if c < 0 || c > 255 || c != float64(int(c)) {
				return Config{}, &pointcloud.ValueError{Field: "ingest.default_color", Value: v, Reason: "channels must be integers in [0, 255]"}
			}
			cfg.Ingest.DefaultColor[i] = uint8(c)
		}
	}

	if v := tree.Get("points.error"); v != nil {
		e, err := number("points.error", v)
		if err != nil {
			return Config{}, err
		}
		cfg.Points.Error = e
	}

	if v := tree.Get("gaussian.scale"); v != nil {
		s, err := scale("gaussian.scale", v)
		if err != nil {
			return Config{}, err
		}
		cfg.Gaussian.Scale = s
	}

	if v := tree.Get("gaussian.opacity"); v != nil {
		o, err := number("gaussian.opacity", v)
		if err != nil {
			return Config{}, err
		}
		cfg.Gaussian.Opacity = o
	}

	if v := tree.Get("gaussian.sh_degree"); v != nil {
		d, ok := v.(int64)
		if !ok {
			return Config{}, &pointcloud.ValueError{Field: "gaussian.sh_degree", Value: v, Reason: "must be an integer"}
		}
		cfg.Gaussian.SHDegree = int(d)
	}

	if v := tree.Get("gaussian.ascii"); v != nil {
		b, ok := v.(bool)
		if !ok {
			return Config{}, &pointcloud.ValueError{Field: "gaussian.ascii", Value: v, Reason: "must be a boolean"}
		}
		cfg.Gaussian.ASCII = b
	}

	if err := cfg.Gaussian.Synthesis().Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// scale accepts either a single number broadcast to every axis or exactly
// three numbers, one per axis.
func scale(field string, v interface{}) ([3]float64, error) {
	if s, err := number(field, v); err == nil {
		return gaussian.UniformScale(s), nil
	}

	values, err := numbers(field, v, 3)
	if err != nil {
		return [3]float64{}, &pointcloud.ValueError{Field: field, Value: v, Reason: "must be one number or three"}
	}
	return [3]float64{values[0], values[1], values[2]}, nil
}

func number(field string, v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int64:
		return float64(n), nil
	}
	return 0, &pointcloud.ValueError{Field: field, Value: v, Reason: "must be a number"}
}

func numbers(field string, v interface{}, count int) ([]float64, error) {
	var items []interface{}
	switch arr := v.(type) {
	case []interface{}:
		items = arr
	case []float64:
		return checkCount(field, v, arr, count)
	case []int64:
		out := make([]float64, len(arr))
		for i, n := range arr {
			out[i] = float64(n)
		}
		return checkCount(field, v, out, count)
	default:
		return nil, &pointcloud.ValueError{Field: field, Value: v, Reason: "must be an array"}
	}

	out := make([]float64, len(items))
	for i, item := range items {
		f, err := number(field, item)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return checkCount(field, v, out, count)
}

func checkCount(field string, v interface{}, values []float64, count int) ([]float64, error) {
	if len(values) != count {
		return nil, &pointcloud.ValueError{Field: field, Value: v, Reason: "wrong number of values"}
	}
	return values, nil
}
