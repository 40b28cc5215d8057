// Package gaussian derives initial Gaussian splatting attributes from a
// colored point cloud.
package gaussian

import (
	"fmt"
	"math"

	"github.com/golang/glog"
	"github.com/recolude/splatprep/pointcloud"
)

// C0 is the normalization constant of the zeroth real spherical harmonic.
const C0 = 0.28209479177387814

const (
	minOpacity = 1e-6
	maxOpacity = 1 - 1e-6
	minScale   = 1e-8
)

// MaxSHDegree is the highest spherical harmonic degree a Config accepts.
const MaxSHDegree = 8

// Config holds the initial values shared by every synthesized gaussian.
type Config struct {
	// Scale is the linear half extent along each axis.
	Scale [3]float64

	// Opacity is the initial visibility probability.
	Opacity float64

	// SHDegree is the maximum spherical harmonic degree. Only the DC term
	// carries color, higher order coefficients start at zero.
	SHDegree int
}

// UniformScale broadcasts s to all three axes.
func UniformScale(s float64) [3]float64 {
	return [3]float64{s, s, s}
}

// DefaultConfig is a 1cm gaussian at 0.8 opacity with DC color only.
func DefaultConfig() Config {
	return Config{
		Scale:    UniformScale(0.01),
		Opacity:  0.8,
		SHDegree: 0,
	}
}

// Validate rejects configurations that can not produce finite attributes.
func (c Config) Validate() error {
	if math.IsNaN(c.Opacity) || c.Opacity < 0 || c.Opacity > 1 {
		return &pointcloud.ValueError{Field: "opacity", Value: c.Opacity, Reason: "must be a probability in [0, 1]"}
	}
	if c.SHDegree < 0 {
		return &pointcloud.ValueError{Field: "sh degree", Value: c.SHDegree, Reason: "must not be negative"}
	}
	if c.SHDegree > MaxSHDegree {
		return &pointcloud.ValueError{Field: "sh degree", Value: c.SHDegree, Reason: fmt.Sprintf("must be at most %d", MaxSHDegree)}
	}
	for _, s := range c.Scale {
		if math.IsNaN(s) {
			return &pointcloud.ValueError{Field: "scale", Value: c.Scale, Reason: "must be a number"}
		}
	}
	return nil
}

// RestCount is the number of higher order SH coefficients per color channel
// for the given degree.
func RestCount(degree int) int {
	return (degree+1)*(degree+1) - 1
}

// SHDC maps a normalized color channel to its DC coefficient.
func SHDC(c float64) float64 {
	return (c - 0.5) / C0
}

// SHDCToColor is the inverse of SHDC.
func SHDCToColor(dc float64) float64 {
	return 0.5 + C0*dc
}

// Logit maps a probability to an unbounded value. p is clamped away from 0
// and 1 first.
func Logit(p float64) float64 {
	p = math.Min(math.Max(p, minOpacity), maxOpacity)
	return math.Log(p / (1 - p))
}

// Sigmoid is the inverse of Logit.
func Sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// LogScale is the natural log of s, floored above zero.
func LogScale(s float64) float64 {
	return math.Log(math.Max(s, minScale))
}

// Point is the attribute set of a single gaussian.
type Point struct {
	Position [3]float32
	Normal   [3]float32
	DC       [3]float32

	// Rest holds 3*RestCount(degree) coefficients, channel major.
	Rest []float32

	Opacity  float32
	Scale    [3]float32
	Rotation [4]float32
}

// PointSet is a synthesized set of gaussians in source point order.
type PointSet struct {
	SHDegree int
	Points   []Point
}

// Len is the number of gaussians in the set.
func (s *PointSet) Len() int {
	return len(s.Points)
}

// Synthesize derives one gaussian per point of the cloud.
func Synthesize(cloud *pointcloud.PointCloud, cfg Config) (*PointSet, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opacity := float32(Logit(cfg.Opacity))
	scale := [3]float32{
		float32(LogScale(cfg.Scale[0])),
		float32(LogScale(cfg.Scale[1])),
		float32(LogScale(cfg.Scale[2])),
	}

	restCount := 3 * RestCount(cfg.SHDegree)
	rest := make([]float32, restCount*cloud.Len())

	set := &PointSet{
		SHDegree: cfg.SHDegree,
		Points:   make([]Point, cloud.Len()),
	}
	for i := range set.Points {
		p := cloud.Positions[i]
		c := cloud.Colors[i]
		set.Points[i] = Point{
			Position: [3]float32{p.X(), p.Y(), p.Z()},
			DC: [3]float32{
				float32(SHDC(float64(c[0]) / 255)),
				float32(SHDC(float64(c[1]) / 255)),
				float32(SHDC(float64(c[2]) / 255)),
			},
			Rest:     rest[i*restCount : (i+1)*restCount : (i+1)*restCount],
			Opacity:  opacity,
			Scale:    scale,
			Rotation: [4]float32{1, 0, 0, 0},
		}
	}

	glog.V(1).Infof("synthesized %d gaussians, sh degree %d, opacity logit %g, log scale %v", set.Len(), cfg.SHDegree, opacity, scale)
	return set, nil
}
