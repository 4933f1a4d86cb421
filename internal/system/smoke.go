package system

import (
	"time"

	coresys "github.com/navalrts/server/internal/core/system"
	"github.com/navalrts/server/internal/world"
)

// SmokeSystem runs the smoke consumable: cooldowns recharge while a ship is
// not deploying, deploying ships drop puffs on an interval, and puffs
// dissipate. Phase 1.
type SmokeSystem struct {
	world *world.State
}

func NewSmokeSystem(ws *world.State) *SmokeSystem {
	return &SmokeSystem{world: ws}
}

func (s *SmokeSystem) Phase() coresys.Phase { return coresys.PhaseMovement }

func (s *SmokeSystem) Update(dt time.Duration) {
	st := s.world

	for _, id := range st.Smoke.SortedIDs() {
		if st.Deploying.Has(id) {
			continue
		}
		sm, _ := st.Smoke.Get(id)
		sm.Cooldown.Tick(dt)
	}

	for _, id := range st.Deploying.SortedIDs() {
		dep, _ := st.Deploying.Get(id)
		sm, ok := st.Smoke.Get(id)
		tr, ok2 := st.Transforms.Get(id)
		if !ok || !ok2 {
			st.Deploying.Remove(id)
			continue
		}
		dep.Action.Tick(dt)
		dep.Puff.Tick(dt)
		if dep.Puff.JustFinished() || dep.Action.Finished() {
			pos, radius, dissipation := tr.Pos.XY(), sm.Spec.Radius, world.Seconds(sm.Spec.DissipationSecs)
			st.ECS.Defer(func() { st.SpawnSmokePuff(pos, radius, dissipation) })
		}
		if dep.Action.Finished() {
			st.Deploying.Remove(id)
		}
	}

	for _, id := range st.Puffs.SortedIDs() {
		p, _ := st.Puffs.Get(id)
		p.Dissipation.Tick(dt)
		if p.Dissipation.Finished() {
			st.QueueDespawn(id)
		}
	}
}
