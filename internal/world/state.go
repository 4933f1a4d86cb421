package world

import (
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/navalrts/server/internal/component"
	"github.com/navalrts/server/internal/core/ecs"
	"github.com/navalrts/server/internal/core/event"
	"github.com/navalrts/server/internal/data"
	"github.com/navalrts/server/internal/scripting"
)

// State is the whole simulation of one match: the ECS world and its component
// stores, the shared id table, the roster and the per-tick outbox. It is
// passed explicitly to every system. Accessed only from the game loop
// goroutine, no locks.
type State struct {
	ECS *ecs.World

	Transforms     *ecs.PtrComponentStore[component.Transform]
	Velocities     *ecs.PtrComponentStore[component.Velocity]
	Healths        *ecs.PtrComponentStore[component.Health]
	Teams          *ecs.PtrComponentStore[component.Team]
	Ships          *ecs.PtrComponentStore[component.Ship]
	MoveOrders     *ecs.PtrComponentStore[component.MoveOrder]
	FireTargets    *ecs.PtrComponentStore[component.FireTarget]
	Detections     *ecs.PtrComponentStore[component.DetectionStatus]
	BaseDetections *ecs.PtrComponentStore[component.BaseDetection]
	Detectors      *ecs.PtrComponentStore[component.Detector]
	Bullets        *ecs.PtrComponentStore[component.Bullet]
	Torpedoes      *ecs.PtrComponentStore[component.Torpedo]
	Puffs          *ecs.PtrComponentStore[component.SmokePuff]
	Smoke          *ecs.PtrComponentStore[component.SmokeState]
	Deploying      *ecs.PtrComponentStore[component.SmokeDeploying]

	Shared  *SharedEntities
	Clients *Clients
	Outbox  *Outbox
	Grid    *SpatialGrid
	Events  *event.Bus

	Rules   Rules
	Catalog *data.ShipTable
	Damage  scripting.DamageModel
	RNG     *rand.Rand
	Elapsed time.Duration

	Log *zap.Logger
}

// Options configures NewState. Zero fields get defaults.
type Options struct {
	Rules          Rules
	Catalog        *data.ShipTable
	Damage         scripting.DamageModel
	RNG            *rand.Rand
	CommandsPerSec float64
	CommandBurst   int
	Log            *zap.Logger
}

func NewState(opts Options) *State {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Damage == nil {
		opts.Damage = scripting.FallbackDamage{}
	}
	if opts.RNG == nil {
		opts.RNG = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if opts.Rules == (Rules{}) {
		opts.Rules = DefaultRules()
	}

	w := ecs.NewWorld()
	clients := NewClients(opts.CommandsPerSec, opts.CommandBurst)
	s := &State{
		ECS:            w,
		Transforms:     register(w, ecs.NewPtrComponentStore[component.Transform]()),
		Velocities:     register(w, ecs.NewPtrComponentStore[component.Velocity]()),
		Healths:        register(w, ecs.NewPtrComponentStore[component.Health]()),
		Teams:          register(w, ecs.NewPtrComponentStore[component.Team]()),
		Ships:          register(w, ecs.NewPtrComponentStore[component.Ship]()),
		MoveOrders:     register(w, ecs.NewPtrComponentStore[component.MoveOrder]()),
		FireTargets:    register(w, ecs.NewPtrComponentStore[component.FireTarget]()),
		Detections:     register(w, ecs.NewPtrComponentStore[component.DetectionStatus]()),
		BaseDetections: register(w, ecs.NewPtrComponentStore[component.BaseDetection]()),
		Detectors:      register(w, ecs.NewPtrComponentStore[component.Detector]()),
		Bullets:        register(w, ecs.NewPtrComponentStore[component.Bullet]()),
		Torpedoes:      register(w, ecs.NewPtrComponentStore[component.Torpedo]()),
		Puffs:          register(w, ecs.NewPtrComponentStore[component.SmokePuff]()),
		Smoke:          register(w, ecs.NewPtrComponentStore[component.SmokeState]()),
		Deploying:      register(w, ecs.NewPtrComponentStore[component.SmokeDeploying]()),
		Shared:         NewSharedEntities(),
		Clients:        clients,
		Outbox:         NewOutbox(clients, log),
		Grid:           NewSpatialGrid(),
		Events:         event.NewBus(),
		Rules:          opts.Rules,
		Catalog:        opts.Catalog,
		Damage:         opts.Damage,
		RNG:            opts.RNG,
		Log:            log,
	}
	return s
}

func register[T any](w *ecs.World, s *ecs.PtrComponentStore[T]) *ecs.PtrComponentStore[T] {
	w.Registry().Register(s)
	return s
}

// Enemies reports whether a and b belong to different teams. Entities
// without a team are nobody's enemy.
func (s *State) Enemies(a, b ecs.EntityID) bool {
	ta, ok := s.Teams.Get(a)
	if !ok {
		return false
	}
	tb, ok := s.Teams.Get(b)
	if !ok {
		return false
	}
	return ta.Client != tb.Client
}
