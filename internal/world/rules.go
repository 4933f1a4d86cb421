package world

import (
	"math"
	"time"

	"github.com/navalrts/server/internal/data"
)

// Rules are the match-wide physical constants, carried on State.
type Rules struct {
	Gravity            float64       // m/s^2
	MapHalfSize        float64       // ships are clamped to [-MapHalfSize, MapHalfSize]
	WaypointEpsilon    float64       // metres
	ReferenceTurnSpeed float64       // m/s at which ships reach full rudder authority
	MinDetection       float64       // metres; nothing closer stays hidden
	FiringBoost        time.Duration // detected-by-firing duration
	BulletMinAltitude  float64       // metres; shells below this are removed
	TorpedoDetection   float64       // metres
	TorpedoSpawnOffset float64       // metres ahead of the launching ship
	SmokePuffInterval  time.Duration
	AimTolerance       float64 // radians
}

func DefaultRules() Rules {
	return Rules{
		Gravity:            10,
		MapHalfSize:        24000,
		WaypointEpsilon:    5,
		ReferenceTurnSpeed: data.Knots(20),
		MinDetection:       2000,
		FiringBoost:        20 * time.Second,
		BulletMinAltitude:  -100,
		TorpedoDetection:   2000,
		TorpedoSpawnOffset: 50,
		SmokePuffInterval:  2 * time.Second,
		AimTolerance:       math.Pi / 180,
	}
}
