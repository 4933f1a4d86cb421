package geom

import "math"

// SegmentIntersectsCircle reports whether the segment a-b passes within r of c.
func SegmentIntersectsCircle(a, b, c Vec2, r float64) bool {
	ab := b.Sub(a)
	l2 := ab.LengthSquared()
	t := 0.0
	if l2 > 0 {
		t = Clamp(c.Sub(a).Dot(ab)/l2, 0, 1)
	}
	closest := a.Add(ab.Scale(t))
	return closest.DistanceSquared(c) <= r*r
}

// SegmentHitsBox runs a slab test of the segment a-b against the axis-aligned
// box [lo, hi]. It returns the entry parameter in [0, 1] on a hit.
func SegmentHitsBox(a, b, lo, hi Vec3) (float64, bool) {
	tmin, tmax := 0.0, 1.0
	d := b.Sub(a)
	axes := [3][4]float64{
		{a.X, d.X, lo.X, hi.X},
		{a.Y, d.Y, lo.Y, hi.Y},
		{a.Z, d.Z, lo.Z, hi.Z},
	}
	for _, ax := range axes {
		origin, dir, min, max := ax[0], ax[1], ax[2], ax[3]
		if math.Abs(dir) < 1e-12 {
			if origin < min || origin > max {
				return 0, false
			}
			continue
		}
		t1 := (min - origin) / dir
		t2 := (max - origin) / dir
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = math.Max(tmin, t1)
		tmax = math.Min(tmax, t2)
		if tmin > tmax {
			return 0, false
		}
	}
	return tmin, true
}
