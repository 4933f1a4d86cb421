package system

import (
	"sort"
	"time"

	"github.com/navalrts/server/internal/core/ecs"
)

// Runner executes systems in phase order each tick. Systems sharing a phase
// run in registration order. Deferred world commands are flushed after every
// system.
type Runner struct {
	world   *ecs.World
	systems []System
	sorted  bool
}

func NewRunner(w *ecs.World) *Runner {
	return &Runner{
		world:   w,
		systems: make([]System, 0, 16),
	}
}

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.sorted = false
}

func (r *Runner) Tick(dt time.Duration) {
	r.ensureSorted()
	for _, s := range r.systems {
		s.Update(dt)
		r.flush()
	}
}

// TickPhase runs only the systems of one phase.
func (r *Runner) TickPhase(phase Phase, dt time.Duration) {
	r.ensureSorted()
	for _, s := range r.systems {
		if s.Phase() == phase {
			s.Update(dt)
			r.flush()
		}
	}
}

func (r *Runner) flush() {
	if r.world != nil {
		r.world.FlushCommands()
	}
}

func (r *Runner) ensureSorted() {
	if !r.sorted {
		sort.SliceStable(r.systems, func(i, j int) bool {
			return r.systems[i].Phase() < r.systems[j].Phase()
		})
		r.sorted = true
	}
}
