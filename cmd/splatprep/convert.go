package main

import (
	"io"
	"os"

	"github.com/golang/glog"
	"github.com/recolude/splatprep/colmap"
	"github.com/recolude/splatprep/config"
	"github.com/recolude/splatprep/gaussian"
	"github.com/recolude/splatprep/pointcloud"
	"github.com/recolude/splatprep/utilites"
	"github.com/urfave/cli/v2"
)

// loadConfig layers the config file, if any, and then explicitly set flags
// over the defaults.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	if c.IsSet("default-color") {
		color, err := colorFlag(c.IntSlice("default-color"))
		if err != nil {
			return config.Config{}, err
		}
		cfg.Ingest.DefaultColor = color
	}

	if c.IsSet("error") {
		cfg.Points.Error = c.Float64("error")
	}

	if c.IsSet("scale") {
		scale, err := scaleFlag(c.Float64Slice("scale"))
		if err != nil {
			return config.Config{}, err
		}
		cfg.Gaussian.Scale = scale
	}

	if c.IsSet("opacity") {
		cfg.Gaussian.Opacity = c.Float64("opacity")
	}

	if c.IsSet("sh-degree") {
		cfg.Gaussian.SHDegree = c.Int("sh-degree")
	}

	if c.IsSet("ascii") {
		cfg.Gaussian.ASCII = c.Bool("ascii")
	}

	return cfg, nil
}

func colorFlag(values []int) ([3]uint8, error) {
	if len(values) != 3 {
		return [3]uint8{}, &pointcloud.ValueError{Field: "default color", Value: values, Reason: "expected r,g,b"}
	}
	var color [3]uint8
	for i, v := range values {
		if v < 0 || v > 255 {
			return [3]uint8{}, &pointcloud.ValueError{Field: "default color", Value: values, Reason: "channels must be in [0, 255]"}
		}
		color[i] = uint8(v)
	}
	return color, nil
}

func scaleFlag(values []float64) ([3]float64, error) {
	switch len(values) {
	case 1:
		return gaussian.UniformScale(values[0]), nil
	case 3:
		return [3]float64{values[0], values[1], values[2]}, nil
	}
	return [3]float64{}, &pointcloud.ValueError{Field: "scale", Value: values, Reason: "expected one value or three"}
}

func ingest(path string, cfg config.Config) (*pointcloud.PointCloud, error) {
	cloud, err := pointcloud.Ingest(path, pointcloud.WithDefaultColor(cfg.Ingest.DefaultColor))
	if err != nil {
		return nil, err
	}
	glog.Infof("read %d points from %s", cloud.Len(), path)
	return cloud, nil
}

// writeFile creates path and hands it to write. The file is closed on every
// path; a partially written file is left in place on failure.
func writeFile(path string, write func(w io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return &pointcloud.IOError{Op: "create", Path: path, Err: err}
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = &pointcloud.IOError{Op: "close", Path: path, Err: closeErr}
		}
	}()

	return pointcloud.WithPath(write(f), "write", path)
}

func readFile(path string, read func(r io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return &pointcloud.IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	return pointcloud.WithPath(read(f), "read", path)
}

func plyToPointsBinary(in, out string, cfg config.Config) error {
	cloud, err := ingest(in, cfg)
	if err != nil {
		return err
	}
	return writeFile(out, func(w io.Writer) error {
		count, err := colmap.EncodeBinary(cloud, w, colmap.WithError(cfg.Points.Error))
		if err != nil {
			return err
		}
		glog.Infof("wrote %d records to %s", count, out)
		return nil
	})
}

func plyToPointsText(in, out string, cfg config.Config) error {
	cloud, err := ingest(in, cfg)
	if err != nil {
		return err
	}
	return writeFile(out, func(w io.Writer) error {
		count, err := colmap.EncodeText(cloud, w, colmap.WithError(cfg.Points.Error))
		if err != nil {
			return err
		}
		glog.Infof("wrote %d records to %s", count, out)
		return nil
	})
}

func pointsTextToBinary(in, out string) error {
	var records []colmap.Record
	err := readFile(in, func(r io.Reader) (err error) {
		records, err = colmap.ReadText(r)
		return err
	})
	if err != nil {
		return err
	}

	return writeFile(out, func(w io.Writer) error {
		count, err := colmap.WriteBinary(records, w)
		if err != nil {
			return err
		}
		glog.Infof("wrote %d records to %s", count, out)
		return nil
	})
}

func pointsBinaryToText(in, out string) error {
	var records []colmap.Record
	err := readFile(in, func(r io.Reader) (err error) {
		records, err = colmap.DecodeBinary(r)
		return err
	})
	if err != nil {
		return err
	}

	return writeFile(out, func(w io.Writer) error {
		count, err := colmap.WriteText(records, w)
		if err != nil {
			return err
		}
		glog.Infof("wrote %d records to %s", count, out)
		return nil
	})
}

func plyToGaussians(in, out string, cfg config.Config) error {
	// validate before reading a potentially large cloud
	synthesis := cfg.Gaussian.Synthesis()
	if err := synthesis.Validate(); err != nil {
		return err
	}

	cloud, err := ingest(in, cfg)
	if err != nil {
		return err
	}

	set, err := gaussian.Synthesize(cloud, synthesis)
	if err != nil {
		return err
	}

	return writeFile(out, func(w io.Writer) error {
		glog.Infof("writing %d gaussians (sh degree %d, %d rest coefficients) to %s", set.Len(), set.SHDegree, 3*gaussian.RestCount(set.SHDegree), out)
		return gaussian.WritePLY(w, set, cfg.Gaussian.Format())
	})
}

func plyToBundle(in, out, name string, cfg config.Config) error {
	synthesis := cfg.Gaussian.Synthesis()
	if err := synthesis.Validate(); err != nil {
		return err
	}

	cloud, err := ingest(in, cfg)
	if err != nil {
		return err
	}

	if name == "" {
		name = in
	}
	recording, err := utilites.BundleRecording(cloud, utilites.BundleOptions{
		Name:           name,
		Gaussian:       synthesis,
		GaussianFormat: cfg.Gaussian.Format(),
		RecordOptions:  []colmap.Option{colmap.WithError(cfg.Points.Error)},
	})
	if err != nil {
		return pointcloud.WithPath(err, "bundle", in)
	}

	return writeFile(out, func(w io.Writer) error {
		return utilites.WriteRecording(w, recording)
	})
}
