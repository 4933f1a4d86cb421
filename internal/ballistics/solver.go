// Package ballistics solves intercept geometry for shells and torpedoes
// fired at a target moving with constant velocity. All functions are pure.
package ballistics

import (
	"math"

	"github.com/navalrts/server/internal/geom"
)

// TorpedoSolution is a straight-line intercept.
type TorpedoSolution struct {
	Intersection geom.Vec2
	Direction    geom.Vec2 // unit
	Time         float64   // seconds
}

// BulletSolution is a gravity-drop intercept. Intersection is in world
// coordinates at sea level; Direction is the unit launch vector.
type BulletSolution struct {
	Intersection geom.Vec2
	Time         float64
	Distance     float64
	Direction    geom.Vec3
	Azimuth      float64
	Elevation    float64
}

// MaxRange is the flat-ground range of a shell fired at 45 degrees.
func MaxRange(muzzleVel, gravity float64) float64 {
	if gravity <= 0 {
		return math.Inf(1)
	}
	return muzzleVel * muzzleVel / gravity
}

// SolveTorpedo finds where a projectile travelling at speed from shooter
// meets a target at target moving with targetVel. It reports false when the
// target cannot be caught.
func SolveTorpedo(shooter, target, targetVel geom.Vec2, speed float64) (TorpedoSolution, bool) {
	p := target.Sub(shooter)
	a := targetVel.Dot(targetVel) - speed*speed
	b := 2 * p.Dot(targetVel)
	c := p.Dot(p)

	var t float64
	if math.Abs(a) < 1e-9 {
		if b == 0 {
			return TorpedoSolution{}, false
		}
		t = -c / b
	} else {
		disc := b*b - 4*a*c
		if disc < 0 {
			return TorpedoSolution{}, false
		}
		t = (-math.Sqrt(disc) - b) / (2 * a)
	}
	if !(t > 0) || math.IsInf(t, 0) {
		return TorpedoSolution{}, false
	}

	rel := p.Add(targetVel.Scale(t))
	dir, ok := rel.TryNormalize()
	if !ok {
		return TorpedoSolution{}, false
	}
	return TorpedoSolution{
		Intersection: shooter.Add(rel),
		Direction:    dir,
		Time:         t,
	}, true
}

// SolveBullet finds the launch direction for a shell with the given muzzle
// velocity under gravity so that it lands on a target at sea level moving
// with targetVel. Callers must still compare Distance against the weapon's
// max range.
func SolveBullet(shooter, target, targetVel geom.Vec2, muzzleVel, gravity float64) (BulletSolution, bool) {
	if gravity <= 0 {
		ts, ok := SolveTorpedo(shooter, target, targetVel, muzzleVel)
		if !ok {
			return BulletSolution{}, false
		}
		rel := ts.Intersection.Sub(shooter)
		return BulletSolution{
			Intersection: ts.Intersection,
			Time:         ts.Time,
			Distance:     rel.Length(),
			Direction:    geom.V3(ts.Direction.X, ts.Direction.Y, 0),
			Azimuth:      ts.Direction.Angle(),
		}, true
	}
	if muzzleVel <= 0 {
		return BulletSolution{}, false
	}

	// (g^2/4) t^4 + (v.v - s^2) t^2 + 2 (p.v) t + p.p = 0, made monic.
	p := target.Sub(shooter)
	v := targetVel
	lead := gravity * gravity / 4
	P := (v.Dot(v) - muzzleVel*muzzleVel) / lead
	Q := 2 * p.Dot(v) / lead
	R := p.Dot(p) / lead

	t, ok := smallestPositiveRoot(depressedQuarticRoots(P, Q, R), P, Q, R)
	if !ok {
		return BulletSolution{}, false
	}

	sinE := gravity * t / (2 * muzzleVel)
	if sinE > 1+1e-9 {
		return BulletSolution{}, false
	}
	elevation := math.Asin(geom.Clamp(sinE, -1, 1))

	rel := p.Add(v.Scale(t))
	n, ok := rel.TryNormalize()
	if !ok {
		return BulletSolution{}, false
	}
	cosE := math.Cos(elevation)
	sol := BulletSolution{
		Intersection: shooter.Add(rel),
		Time:         t,
		Distance:     rel.Length(),
		Direction:    geom.V3(cosE*n.X, cosE*n.Y, math.Sin(elevation)),
		Azimuth:      math.Atan2(rel.Y, rel.X),
		Elevation:    elevation,
	}
	if math.IsNaN(sol.Azimuth) || math.IsNaN(sol.Elevation) || !sol.Intersection.IsFinite() {
		return BulletSolution{}, false
	}
	return sol, true
}
