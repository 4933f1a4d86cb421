package component

import (
	"github.com/navalrts/server/internal/core/timer"
	"github.com/navalrts/server/internal/data"
)

// SmokePuff blocks line of sight through its circle until it dissipates.
type SmokePuff struct {
	Radius      float64
	Dissipation timer.Timer
}

// SmokeState is a ship's smoke consumable.
type SmokeState struct {
	Spec     *data.SmokeSpec
	Cooldown timer.Timer
	Charges  int // ignored when Spec.Charges is zero
}

func (s *SmokeState) Unlimited() bool { return s.Spec.Charges == 0 }

// SmokeDeploying is present while a ship is laying smoke.
type SmokeDeploying struct {
	Action timer.Timer
	Puff   timer.Timer
}
