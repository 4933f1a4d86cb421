package geom

import "math"

// AngleRange is the arc swept counter-clockwise from one unit direction to
// another. Ranges are used for turret movement and firing arcs and for
// torpedo launch sectors.
type AngleRange struct {
	from Vec2
	to   Vec2
}

// NewAngleRange builds the counter-clockwise sweep from from to to.
func NewAngleRange(from, to Vec2) AngleRange {
	return AngleRange{from: from.Normalize(), to: to.Normalize()}
}

func AngleRangeFromAngles(from, to float64) AngleRange {
	return AngleRange{from: FromAngle(from), to: FromAngle(to)}
}

func AngleRangeFromDegrees(from, to float64) AngleRange {
	return AngleRangeFromAngles(from*math.Pi/180, to*math.Pi/180)
}

func (r AngleRange) Start() Vec2 { return r.from }
func (r AngleRange) End() Vec2   { return r.to }

// Contains reports whether v lies within the sweep (inclusive of both ends).
func (r AngleRange) Contains(v Vec2) bool {
	if r.from.PerpDot(r.to) >= 0 {
		return r.from.PerpDot(v) >= 0 && v.PerpDot(r.to) >= 0
	}
	return r.from.PerpDot(v) >= 0 || v.PerpDot(r.to) >= 0
}

// Clamp keeps the length of v but snaps its direction to the nearer end of
// the range when it falls outside.
func (r AngleRange) Clamp(v Vec2) Vec2 {
	if r.Contains(v) {
		return v
	}
	if math.Abs(r.from.AngleTo(v)) > math.Abs(r.to.AngleTo(v)) {
		return r.to.Scale(v.Length())
	}
	return r.from.Scale(v.Length())
}

func (r AngleRange) Overlaps(o AngleRange) bool {
	return r.Contains(o.from) || r.Contains(o.to) || o.Contains(r.from)
}

// Inverse is the complementary arc.
func (r AngleRange) Inverse() AngleRange {
	return AngleRange{from: r.to, to: r.from}
}

// ReflectX mirrors the range across the X axis, keeping the sweep
// counter-clockwise.
func (r AngleRange) ReflectX() AngleRange {
	return NewAngleRange(Vec2{r.to.X, -r.to.Y}, Vec2{r.from.X, -r.from.Y})
}

// Rotated turns both ends of the range by rad.
func (r AngleRange) Rotated(rad float64) AngleRange {
	d := FromAngle(rad)
	return AngleRange{from: r.from.Rotate(d), to: r.to.Rotate(d)}
}
