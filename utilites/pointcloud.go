package utilites

import (
	"bytes"

	"github.com/EliCDavis/polyform/formats/ply"
	"github.com/EliCDavis/polyform/modeling"
	"github.com/EliCDavis/vector/vector3"
	rapio "github.com/recolude/rap/format/io"
	"github.com/recolude/rap/format/metadata"
	"github.com/recolude/splatprep/pointcloud"
)

// CloudToPLY writes the cloud as a plain colored binary PLY.
func CloudToPLY(cloud *pointcloud.PointCloud) ([]byte, error) {
	positionData := make([]vector3.Vector[float64], 0, cloud.Len())
	colorData := make([]vector3.Vector[float64], 0, cloud.Len())

	for i, p := range cloud.Positions {
		c := cloud.Colors[i]
		positionData = append(positionData, vector3.New(float64(p.X()), float64(p.Y()), float64(p.Z())))
		colorData = append(colorData, vector3.New(float64(c[0]), float64(c[1]), float64(c[2])).DivByConstant(255.))
	}

	pc := modeling.NewPointCloud(
		map[string][]vector3.Vector[float64]{
			modeling.PositionAttribute: positionData,
			modeling.ColorAttribute:    colorData,
		},
		nil,
		nil,
		nil,
	)

	buf := bytes.Buffer{}
	if err := ply.WriteBinary(&buf, pc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// CloudToRapBinary wraps CloudToPLY's output as a RAP binary attachment.
func CloudToRapBinary(name string, cloud *pointcloud.PointCloud) (rapio.Binary, error) {
	data, err := CloudToPLY(cloud)
	if err != nil {
		return rapio.Binary{}, err
	}

	return rapio.NewBinary(name, data, metadata.NewBlock(map[string]metadata.Property{
		"points":       metadata.NewIntProperty(cloud.Len()),
		"color scheme": metadata.NewStringProperty(colorSchemeName(cloud)),
	})), nil
}

func colorSchemeName(cloud *pointcloud.PointCloud) string {
	if cloud.ColorScheme == "" {
		return "default"
	}
	return cloud.ColorScheme
}
