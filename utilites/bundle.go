package utilites

import (
	"bytes"
	"io"

	"github.com/golang/glog"
	"github.com/recolude/rap/format"
	"github.com/recolude/rap/format/encoding"
	eulEnc "github.com/recolude/rap/format/encoding/euler"
	eventEnc "github.com/recolude/rap/format/encoding/event"
	posEnc "github.com/recolude/rap/format/encoding/position"
	rapio "github.com/recolude/rap/format/io"
	"github.com/recolude/rap/format/metadata"
	"github.com/recolude/splatprep/colmap"
	"github.com/recolude/splatprep/gaussian"
	"github.com/recolude/splatprep/pointcloud"
)

// Bundle names of the binaries attached to a bundle recording.
const (
	CloudBinaryName    = "points.ply"
	PointsBinaryName   = "points3D.bin"
	PointsTextName     = "points3D.txt"
	GaussianBinaryName = "gaussians.ply"
)

// BundleOptions selects how the bundled artifacts are produced.
type BundleOptions struct {
	Name           string
	Gaussian       gaussian.Config
	GaussianFormat gaussian.Format
	RecordOptions  []colmap.Option
}

// BundleRecording converts the cloud into every supported representation and
// attaches each one as a binary of a single recording.
func BundleRecording(cloud *pointcloud.PointCloud, opts BundleOptions) (format.Recording, error) {
	cloudBinary, err := CloudToRapBinary(CloudBinaryName, cloud)
	if err != nil {
		return nil, err
	}

	pointsBin := bytes.Buffer{}
	if _, err := colmap.EncodeBinary(cloud, &pointsBin, opts.RecordOptions...); err != nil {
		return nil, err
	}

	pointsText := bytes.Buffer{}
	if _, err := colmap.EncodeText(cloud, &pointsText, opts.RecordOptions...); err != nil {
		return nil, err
	}

	set, err := gaussian.Synthesize(cloud, opts.Gaussian)
	if err != nil {
		return nil, err
	}
	gaussians := bytes.Buffer{}
	if err := gaussian.WritePLY(&gaussians, set, opts.GaussianFormat); err != nil {
		return nil, err
	}

	pointsMetadata := metadata.NewBlock(map[string]metadata.Property{
		"points": metadata.NewIntProperty(cloud.Len()),
	})

	binaries := []format.Binary{
		cloudBinary,
		rapio.NewBinary(PointsBinaryName, pointsBin.Bytes(), pointsMetadata),
		rapio.NewBinary(PointsTextName, pointsText.Bytes(), pointsMetadata),
		rapio.NewBinary(GaussianBinaryName, gaussians.Bytes(), metadata.NewBlock(map[string]metadata.Property{
			"points":    metadata.NewIntProperty(set.Len()),
			"sh degree": metadata.NewIntProperty(set.SHDegree),
			"opacity":   metadata.NewFloat32Property(float32(opts.Gaussian.Opacity)),
			"scale x":   metadata.NewFloat32Property(float32(opts.Gaussian.Scale[0])),
			"scale y":   metadata.NewFloat32Property(float32(opts.Gaussian.Scale[1])),
			"scale z":   metadata.NewFloat32Property(float32(opts.Gaussian.Scale[2])),
		})),
	}

	name := opts.Name
	if name == "" {
		name = "point cloud"
	}

	glog.V(1).Infof("bundling %d points into %d binaries", cloud.Len(), len(binaries))
	return format.NewRecording(
		"splatprep",
		name,
		[]format.CaptureCollection{},
		[]format.Recording{},
		metadata.NewBlock(map[string]metadata.Property{
			"points":       metadata.NewIntProperty(cloud.Len()),
			"color scheme": metadata.NewStringProperty(colorSchemeName(cloud)),
		}),
		binaries,
		[]format.BinaryReference{},
	), nil
}

// WriteRecording encodes the recording as RAP.
func WriteRecording(w io.Writer, recording format.Recording) error {
	rapWriter := rapio.NewWriter(
		[]encoding.Encoder{
			posEnc.NewEncoder(posEnc.Oct24),
			eulEnc.NewEncoder(eulEnc.Raw16),
			eventEnc.NewEncoder(),
		},
		true,
		w,
		rapio.BST16,
	)

	if _, err := rapWriter.Write(recording); err != nil {
		return &pointcloud.IOError{Op: "write", Err: err}
	}
	return nil
}
