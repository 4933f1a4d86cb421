package geom

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vecNear(t *testing.T, want, got Vec2) {
	t.Helper()
	assert.LessOrEqual(t, want.DistanceSquared(got), 1e-3, "want %v got %v", want, got)
}

func TestAngleToSign(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 1000; i++ {
		v := FromAngle(rng.Float64() * 2 * math.Pi)
		assert.Greater(t, v.AngleTo(v.RotateAngle(0.001)), 0.0)
		assert.Greater(t, v.AngleTo(v.RotateAngle(math.Pi-0.001)), 0.0)
		assert.Less(t, v.AngleTo(v.RotateAngle(-0.001)), 0.0)
		assert.Less(t, v.AngleTo(v.RotateAngle(math.Pi+0.001)), 0.0)
	}
}

func TestAngleRangeClamp(t *testing.T) {
	r := AngleRangeFromAngles(0.79, 2.3)

	vecNear(t, r.Start(), r.Clamp(r.Start()))
	vecNear(t, r.End(), r.Clamp(r.End()))
	vecNear(t, r.Start(), r.Clamp(FromAngle(0.78)))
	vecNear(t, r.End(), r.Clamp(FromAngle(2.4)))
	vecNear(t, r.Start(), r.Clamp(FromAngle(5.45)))
	vecNear(t, r.End(), r.Clamp(FromAngle(3.9)))
}

func TestAngleRangeClampIdempotent(t *testing.T) {
	ranges := []AngleRange{
		AngleRangeFromDegrees(34, -34),
		AngleRangeFromDegrees(-138, 138),
		AngleRangeFromDegrees(30, 150),
		AngleRangeFromDegrees(-10, 10),
	}
	rng := rand.New(rand.NewPCG(3, 4))
	for _, r := range ranges {
		for i := 0; i < 500; i++ {
			v := FromAngle(rng.Float64() * 2 * math.Pi).Scale(1 + rng.Float64()*10)
			c := r.Clamp(v)
			if r.Contains(v) {
				assert.Equal(t, v, c)
				continue
			}
			assert.InDelta(t, v.Length(), c.Length(), 1e-9)
			n := c.Normalize()
			atEnd := n.DistanceSquared(r.Start()) < 1e-12 || n.DistanceSquared(r.End()) < 1e-12
			assert.True(t, atEnd, "clamped %v to %v, not an endpoint", v, c)
			again := r.Clamp(c)
			assert.InDelta(t, c.X, again.X, 1e-9)
			assert.InDelta(t, c.Y, again.Y, 1e-9)
		}
	}
}

func TestAngleRangeContains(t *testing.T) {
	narrow := AngleRangeFromDegrees(30, 150)
	assert.True(t, narrow.Contains(FromAngle(math.Pi/2)))
	assert.False(t, narrow.Contains(FromAngle(-math.Pi/2)))

	wide := AngleRangeFromDegrees(34, -34)
	assert.True(t, wide.Contains(FromAngle(math.Pi)))
	assert.False(t, wide.Contains(FromAngle(0)))
	assert.False(t, wide.Inverse().Contains(FromAngle(math.Pi)))
	assert.True(t, wide.Inverse().Contains(FromAngle(0)))
}

func TestAngleRangeReflectX(t *testing.T) {
	port := AngleRangeFromDegrees(30, 150)
	starboard := port.ReflectX()
	assert.True(t, starboard.Contains(FromAngle(-math.Pi/2)))
	assert.False(t, starboard.Contains(FromAngle(math.Pi/2)))
	vecNear(t, FromAngle(-150*math.Pi/180), starboard.Start())
	vecNear(t, FromAngle(-30*math.Pi/180), starboard.End())
}

func TestAngleRangeOverlaps(t *testing.T) {
	a := AngleRangeFromDegrees(0, 90)
	assert.True(t, a.Overlaps(AngleRangeFromDegrees(45, 135)))
	assert.True(t, a.Overlaps(AngleRangeFromDegrees(-10, 200)))
	assert.False(t, a.Overlaps(AngleRangeFromDegrees(100, 170)))
}

func TestRotateTowards(t *testing.T) {
	v := FromAngle(0)
	got := v.RotateTowards(FromAngle(math.Pi/2), 0.1)
	assert.InDelta(t, 0.1, got.Angle(), 1e-12)

	got = v.RotateTowards(FromAngle(0.05), 0.1)
	assert.InDelta(t, 0.05, got.Angle(), 1e-12)
}

func TestRotateAround(t *testing.T) {
	v := V3(1, 0, 0)
	got := v.RotateAround(UnitZ, math.Pi/2)
	assert.InDelta(t, 0, got.X, 1e-12)
	assert.InDelta(t, 1, got.Y, 1e-12)

	axis := v.Cross(UnitZ).Normalize()
	up := v.RotateAround(axis, 0.1)
	assert.Greater(t, up.Z, 0.0)
	assert.InDelta(t, 1, up.Length(), 1e-12)
}

func TestSegmentIntersectsCircle(t *testing.T) {
	c := V2(0, 0)
	assert.True(t, SegmentIntersectsCircle(V2(-10, 1), V2(10, 1), c, 2))
	assert.False(t, SegmentIntersectsCircle(V2(-10, 3), V2(10, 3), c, 2))
	assert.False(t, SegmentIntersectsCircle(V2(5, 0), V2(10, 0), c, 2))
	assert.True(t, SegmentIntersectsCircle(V2(1, 0), V2(1, 0), c, 2))
}

func TestSegmentHitsBox(t *testing.T) {
	lo, hi := V3(-10, -2, -1), V3(10, 2, 3)

	tHit, ok := SegmentHitsBox(V3(-20, 0, 1), V3(20, 0, 1), lo, hi)
	require.True(t, ok)
	assert.InDelta(t, 0.25, tHit, 1e-12)

	_, ok = SegmentHitsBox(V3(-20, 5, 1), V3(20, 5, 1), lo, hi)
	assert.False(t, ok)

	_, ok = SegmentHitsBox(V3(-20, 0, 1), V3(-15, 0, 1), lo, hi)
	assert.False(t, ok)

	_, ok = SegmentHitsBox(V3(0, 0, 10), V3(0, 0, 5), lo, hi)
	assert.False(t, ok)

	tHit, ok = SegmentHitsBox(V3(1, 1, 1), V3(2, 1, 1), lo, hi)
	require.True(t, ok)
	assert.Equal(t, 0.0, tHit)
}
