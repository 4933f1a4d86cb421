package system

import (
	"time"

	"github.com/navalrts/server/internal/component"
	"github.com/navalrts/server/internal/core/ecs"
	coresys "github.com/navalrts/server/internal/core/system"
	"github.com/navalrts/server/internal/world"
)

// ReloadSystem advances torpedo volley reloads. Phase 1.
type ReloadSystem struct {
	world *world.State
}

func NewReloadSystem(ws *world.State) *ReloadSystem {
	return &ReloadSystem{world: ws}
}

func (s *ReloadSystem) Phase() coresys.Phase { return coresys.PhaseMovement }

func (s *ReloadSystem) Update(dt time.Duration) {
	s.world.Ships.Each(func(_ ecs.EntityID, ship *component.Ship) {
		for i := range ship.TorpedoReloads {
			ship.TorpedoReloads[i].Tick(dt)
		}
	})
}
