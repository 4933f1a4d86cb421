package component

import (
	"time"

	"github.com/navalrts/server/internal/geom"
)

// Bullet follows a closed-form parabola from its launch state, shifted by
// the drift of its target since launch.
type Bullet struct {
	Owner  EntityRef
	Target EntityRef
	Damage float64

	InitialPos geom.Vec3
	InitialVel geom.Vec3
	InitialAim geom.Vec2
	CurrentAim geom.Vec2

	FlightTotal time.Duration
	FlightTime  time.Duration
	PrevPos     geom.Vec3
}

// Torpedo runs straight until it hits a hull or exceeds MaxRange from Origin.
type Torpedo struct {
	Owner    EntityRef
	Damage   float64
	Origin   geom.Vec2
	MaxRange float64
	PrevPos  geom.Vec3
}
