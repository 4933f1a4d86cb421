package component

import (
	"github.com/navalrts/server/internal/ballistics"
	"github.com/navalrts/server/internal/core/ecs"
	"github.com/navalrts/server/internal/core/timer"
	"github.com/navalrts/server/internal/data"
	"github.com/navalrts/server/internal/geom"
	"github.com/navalrts/server/internal/net/packet"
)

// EntityRef names another entity. It may be stale; check World.Alive.
type EntityRef = ecs.EntityID

// Team is the owning client.
type Team struct {
	Client packet.ClientID
}

// Health reaching zero or below destroys the entity.
type Health struct {
	HP float64
}

// FireTarget is the ship a player ordered to be engaged.
type FireTarget struct {
	Ship EntityRef
}

// Ship is the per-instance state of a ship.
type Ship struct {
	Template       *data.ShipTemplate
	Speed          float64 // m/s along the heading
	Turrets        []TurretState
	TorpedoReloads []timer.Timer
}

// AimKind tags AimStatus.
type AimKind int

const (
	NoValidTarget AimKind = iota
	AimingToTarget
	AimedAtTarget
)

func (k AimKind) String() string {
	switch k {
	case NoValidTarget:
		return "NoValidTarget"
	case AimingToTarget:
		return "AimingToTarget"
	case AimedAtTarget:
		return "AimedAtTarget"
	}
	return "unknown"
}

// AimStatus is the turret state machine. Target and Solution are meaningful
// only when Kind is not NoValidTarget.
type AimStatus struct {
	Kind     AimKind
	Target   EntityRef
	Solution ballistics.BulletSolution
}

// TurretState is one turret instance on a Ship, indexed like
// Template.Turrets.
type TurretState struct {
	Dir    geom.Vec2 // ship-relative unit bearing
	Reload timer.Timer
	Pos    geom.Vec2 // world position, refreshed every tick
	Aim    AimStatus
}
