package component

import (
	"github.com/navalrts/server/internal/geom"
)

// Transform is an entity's world position and heading (radians, CCW from +X).
type Transform struct {
	Pos     geom.Vec3
	Heading float64
}

// Dir is the unit heading vector.
func (t *Transform) Dir() geom.Vec2 { return geom.FromAngle(t.Heading) }

// Velocity is integrated into Transform every tick.
type Velocity struct {
	V geom.Vec3
}

// MoveOrder is a FIFO of waypoints consumed from the front.
type MoveOrder struct {
	Waypoints []geom.Vec2
}
