package ballistics

import (
	"math"
	"math/rand/v2"

	"github.com/navalrts/server/internal/geom"
)

// dispersionRef is the distance, in metres, at which the dispersion
// footprint is measured.
const dispersionRef = 1000.0

// maxDispersionTries bounds the rejection sampler.
const maxDispersionTries = 64

// Dispersion is an elliptical footprint measured at 1 km. Offsets are drawn
// from normal distributions with standard deviation radius/Sigma and
// rejected when they fall outside the ellipse.
type Dispersion struct {
	Horizontal float64 `yaml:"horizontal"`
	Vertical   float64 `yaml:"vertical"`
	Sigma      float64 `yaml:"sigma"`
}

// Sample draws one in-ellipse offset (horizontal, vertical) in metres at the
// reference distance.
func (d Dispersion) Sample(rng *rand.Rand) (float64, float64) {
	if d.Horizontal <= 0 || d.Vertical <= 0 {
		return 0, 0
	}
	sigma := d.Sigma
	if sigma <= 0 {
		sigma = 1
	}
	for i := 0; i < maxDispersionTries; i++ {
		x := rng.NormFloat64() * d.Horizontal / sigma
		y := rng.NormFloat64() * d.Vertical / sigma
		if x*x/(d.Horizontal*d.Horizontal)+y*y/(d.Vertical*d.Vertical) <= 1 {
			return x, y
		}
	}
	return 0, 0
}

// Apply perturbs a unit launch direction: the vertical offset raises or
// lowers it about the horizontal axis, the horizontal offset swings it about
// world Z.
func (d Dispersion) Apply(rng *rand.Rand, dir geom.Vec3) geom.Vec3 {
	x, y := d.Sample(rng)
	if x == 0 && y == 0 {
		return dir
	}
	out := dir
	if axis, ok := dir.Cross(geom.UnitZ).TryNormalize(); ok {
		out = out.RotateAround(axis, math.Atan2(y, dispersionRef))
	}
	return out.RotateAround(geom.UnitZ, math.Atan2(x, dispersionRef))
}
