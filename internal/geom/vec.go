package geom

import "math"

// Vec2 is a point or direction on the sea plane. Angles are measured
// counter-clockwise from +X.
type Vec2 struct {
	X float64 `msgpack:"x"`
	Y float64 `msgpack:"y"`
}

// Vec3 adds altitude (Z up) to a sea-plane position.
type Vec3 struct {
	X float64 `msgpack:"x"`
	Y float64 `msgpack:"y"`
	Z float64 `msgpack:"z"`
}

var (
	UnitZ = Vec3{Z: 1}
)

func V2(x, y float64) Vec2    { return Vec2{X: x, Y: y} }
func V3(x, y, z float64) Vec3 { return Vec3{X: x, Y: y, Z: z} }

// FromAngle returns the unit vector pointing at rad.
func FromAngle(rad float64) Vec2 {
	return Vec2{X: math.Cos(rad), Y: math.Sin(rad)}
}

func (v Vec2) Add(o Vec2) Vec2        { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2        { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(s float64) Vec2   { return Vec2{v.X * s, v.Y * s} }
func (v Vec2) Neg() Vec2              { return Vec2{-v.X, -v.Y} }
func (v Vec2) Dot(o Vec2) float64     { return v.X*o.X + v.Y*o.Y }
func (v Vec2) PerpDot(o Vec2) float64 { return v.X*o.Y - v.Y*o.X }
func (v Vec2) LengthSquared() float64 { return v.Dot(v) }
func (v Vec2) Length() float64        { return math.Hypot(v.X, v.Y) }
func (v Vec2) Angle() float64         { return math.Atan2(v.Y, v.X) }
func (v Vec2) Extend(z float64) Vec3  { return Vec3{v.X, v.Y, z} }

func (v Vec2) Distance(o Vec2) float64        { return v.Sub(o).Length() }
func (v Vec2) DistanceSquared(o Vec2) float64 { return v.Sub(o).LengthSquared() }

func (v Vec2) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}

// TryNormalize returns the unit vector along v, or false when v has no
// usable direction.
func (v Vec2) TryNormalize() (Vec2, bool) {
	l := v.Length()
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return Vec2{}, false
	}
	return v.Scale(1 / l), true
}

// Normalize returns the unit vector along v, or the zero vector.
func (v Vec2) Normalize() Vec2 {
	n, _ := v.TryNormalize()
	return n
}

// Rotate treats by as a rotation (cos, sin) and applies it to v.
func (v Vec2) Rotate(by Vec2) Vec2 {
	return Vec2{
		X: v.X*by.X - v.Y*by.Y,
		Y: v.Y*by.X + v.X*by.Y,
	}
}

func (v Vec2) RotateAngle(rad float64) Vec2 { return v.Rotate(FromAngle(rad)) }

// AngleTo is the signed angle in (-π, π] that rotates v onto o.
func (v Vec2) AngleTo(o Vec2) float64 {
	return math.Atan2(v.PerpDot(o), v.Dot(o))
}

// RotateTowards turns v toward target by at most maxAngle radians.
func (v Vec2) RotateTowards(target Vec2, maxAngle float64) Vec2 {
	a := v.AngleTo(target)
	if maxAngle < 0 {
		maxAngle = 0
	}
	a = Clamp(a, -maxAngle, maxAngle)
	return v.RotateAngle(a)
}

// ClampBox clamps each component of v into [lo, hi].
func (v Vec2) ClampBox(lo, hi Vec2) Vec2 {
	return Vec2{Clamp(v.X, lo.X, hi.X), Clamp(v.Y, lo.Y, hi.Y)}
}

func (v Vec3) Add(o Vec3) Vec3        { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3        { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3   { return Vec3{v.X * s, v.Y * s, v.Z * s} }
func (v Vec3) Dot(o Vec3) float64     { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }
func (v Vec3) LengthSquared() float64 { return v.Dot(v) }
func (v Vec3) Length() float64        { return math.Sqrt(v.Dot(v)) }
func (v Vec3) XY() Vec2               { return Vec2{v.X, v.Y} }

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		X: v.Y*o.Z - v.Z*o.Y,
		Y: v.Z*o.X - v.X*o.Z,
		Z: v.X*o.Y - v.Y*o.X,
	}
}

func (v Vec3) TryNormalize() (Vec3, bool) {
	l := v.Length()
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return Vec3{}, false
	}
	return v.Scale(1 / l), true
}

func (v Vec3) Normalize() Vec3 {
	n, _ := v.TryNormalize()
	return n
}

// RotateAround rotates v by rad about the unit axis using Rodrigues' formula.
func (v Vec3) RotateAround(axis Vec3, rad float64) Vec3 {
	c, s := math.Cos(rad), math.Sin(rad)
	return v.Scale(c).
		Add(axis.Cross(v).Scale(s)).
		Add(axis.Scale(axis.Dot(v) * (1 - c)))
}

func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Sign returns -1, 0 or 1.
func Sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return 0
}
