package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/navalrts/server/internal/core/ecs"
)

type recorder struct {
	name  string
	phase Phase
	log   *[]string
	fn    func()
}

func (r *recorder) Phase() Phase { return r.phase }
func (r *recorder) Update(time.Duration) {
	*r.log = append(*r.log, r.name)
	if r.fn != nil {
		r.fn()
	}
}

func TestRunnerOrdersByPhaseStable(t *testing.T) {
	var log []string
	r := NewRunner(ecs.NewWorld())
	r.Register(&recorder{name: "out", phase: PhaseOutput, log: &log})
	r.Register(&recorder{name: "kin", phase: PhaseMovement, log: &log})
	r.Register(&recorder{name: "proj", phase: PhaseMovement, log: &log})
	r.Register(&recorder{name: "in", phase: PhaseInput, log: &log})

	r.Tick(time.Second / 30)
	assert.Equal(t, []string{"in", "kin", "proj", "out"}, log)

	log = log[:0]
	r.TickPhase(PhaseMovement, time.Second/30)
	assert.Equal(t, []string{"kin", "proj"}, log)
}

func TestRunnerFlushesBetweenSystems(t *testing.T) {
	var log []string
	w := ecs.NewWorld()
	id := w.CreateEntity()
	r := NewRunner(w)
	r.Register(&recorder{name: "kill", phase: PhaseCollision, log: &log, fn: func() {
		w.Defer(func() { w.DestroyEntity(id) })
	}})
	alive := true
	r.Register(&recorder{name: "check", phase: PhaseDetection, log: &log, fn: func() {
		alive = w.Alive(id)
	}})
	r.Tick(time.Second / 30)
	assert.False(t, alive)
}
