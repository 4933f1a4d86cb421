// Package match runs one match: the handshake with both clients, the initial
// fleet spawn and the fixed-tick simulation loop.
package match

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/navalrts/server/internal/config"
	coresys "github.com/navalrts/server/internal/core/system"
	"github.com/navalrts/server/internal/data"
	"github.com/navalrts/server/internal/geom"
	"github.com/navalrts/server/internal/handler"
	"github.com/navalrts/server/internal/net/packet"
	"github.com/navalrts/server/internal/scripting"
	"github.com/navalrts/server/internal/system"
	"github.com/navalrts/server/internal/world"
)

// ErrHandshakeClosed is returned by Handshake when the inbound stream ends,
// or a participant leaves, before every client has replied.
var ErrHandshakeClosed = errors.New("inbound stream closed during handshake")

// Host is the match's side of the process boundary.
type Host interface {
	In() <-chan packet.Packet
	// Send queues a packet without blocking and reports false if it was
	// dropped.
	Send(packet.Packet) bool
}

type Options struct {
	Match   config.MatchConfig
	Fleet   config.FleetConfig
	Rules   world.Rules
	Catalog *data.ShipTable
	Damage  scripting.DamageModel
	RNG     *rand.Rand
	Log     *zap.Logger
}

// Match owns the simulation state. All methods must be called from one
// goroutine.
type Match struct {
	state    *world.State
	host     Host
	registry *packet.Registry
	runner   *coresys.Runner
	metrics  *metrics

	tick    time.Duration
	clients []packet.ClientID
	fleet   config.FleetConfig
	dropped int

	log *zap.Logger
}

// New builds a match for the given participants. Nothing is sent until
// Handshake.
func New(host Host, clients []packet.ClientID, opts Options) (*Match, error) {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	if want := opts.Match.Clients; want > 0 && len(clients) != want {
		return nil, fmt.Errorf("match needs %d clients, got %d", want, len(clients))
	}
	if len(clients) == 0 {
		return nil, fmt.Errorf("match has no clients")
	}
	if opts.Catalog == nil {
		return nil, fmt.Errorf("match has no ship catalog")
	}
	for _, name := range opts.Fleet.Ships {
		if opts.Catalog.Get(name) == nil {
			return nil, fmt.Errorf("fleet ship %q not in catalog", name)
		}
	}
	tick := opts.Match.TickRate
	if tick <= 0 {
		return nil, fmt.Errorf("tick rate must be positive")
	}

	st := world.NewState(world.Options{
		Rules:          opts.Rules,
		Catalog:        opts.Catalog,
		Damage:         opts.Damage,
		RNG:            opts.RNG,
		CommandsPerSec: opts.Match.CommandsPerSecond,
		CommandBurst:   opts.Match.CommandBurst,
		Log:            log,
	})
	seen := make(map[packet.ClientID]bool, len(clients))
	for _, id := range clients {
		if seen[id] {
			return nil, fmt.Errorf("duplicate client %d", id)
		}
		seen[id] = true
		st.Clients.Add(id)
	}

	met, err := newMetrics()
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	reg := packet.NewRegistry(log)
	handler.RegisterAll(reg, &handler.Deps{World: st, Log: log})

	runner := coresys.NewRunner(st.ECS)
	runner.Register(system.NewInputSystem(host, reg, st, opts.Match.MaxPacketsPerTick, met, log))
	runner.Register(system.NewKinematicsSystem(st))
	runner.Register(system.NewProjectileSystem(st))
	runner.Register(system.NewReloadSystem(st))
	runner.Register(system.NewSmokeSystem(st))
	runner.Register(system.NewCollisionSystem(st, log))
	runner.Register(system.NewDetectionSystem(st, log))
	runner.Register(system.NewTurretSystem(st))
	runner.Register(system.NewEventSystem(st, log))
	runner.Register(system.NewReplicationSystem(st))

	return &Match{
		state:    st,
		host:     host,
		registry: reg,
		runner:   runner,
		metrics:  met,
		tick:     tick,
		clients:  append([]packet.ClientID(nil), clients...),
		fleet:    opts.Fleet,
		log:      log,
	}, nil
}

// State exposes the simulation for inspection.
func (m *Match) State() *world.State { return m.state }

// Handshake assigns every client its id, then blocks until each has replied
// with its display name, and finally broadcasts the roster. It is the only
// blocking read of the inbound stream.
func (m *Match) Handshake(ctx context.Context) error {
	st := m.state
	for _, id := range m.clients {
		st.Outbox.Send(id, packet.S_OPCODE_HANDSHAKE_A, packet.HandshakeA{YourClient: id})
	}
	m.flush()

	in := m.host.In()
	for !m.allJoined() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case p, ok := <-in:
			if !ok {
				return ErrHandshakeClosed
			}
			c, known := st.Clients.Get(p.Client)
			if !known {
				m.metrics.Reject("unknown_client")
				m.log.Warn("handshake packet from unknown client", zap.Uint32("client", uint32(p.Client)))
				continue
			}
			if err := m.registry.Dispatch(c, c.State, p); err != nil {
				m.metrics.Reject(system.RejectReason(err))
				m.log.Warn("handshake dispatch failed", zap.Uint32("client", uint32(c.ID)), zap.Error(err))
				continue
			}
			if c.Departed() {
				return fmt.Errorf("client %d: %w", c.ID, ErrHandshakeClosed)
			}
		}
	}
	st.Outbox.Broadcast(packet.S_OPCODE_HANDSHAKE_B, packet.HandshakeB{Clients: st.Clients.Roster()})
	m.flush()
	m.log.Info("handshake complete", zap.Int("clients", len(m.clients)))
	return nil
}

func (m *Match) allJoined() bool {
	for _, id := range m.clients {
		if c, _ := m.state.Clients.Get(id); c.State != packet.StateInMatch {
			return false
		}
	}
	return true
}

// SpawnFleets places each client's fleet on its own side of the map, facing
// the enemy, ships fanned out alternately either side of the centre line.
func (m *Match) SpawnFleets() {
	st := m.state
	for side, id := range m.clients {
		x, heading := m.fleet.SpawnDistance, math.Pi
		if side%2 == 1 {
			x, heading = -x, 0
		}
		for i, name := range m.fleet.Ships {
			st.SpawnShip(st.Catalog.Get(name), id, geom.V2(x, FleetOffset(i, m.fleet.ShipSpacing)), heading)
		}
	}
	m.flush()
}

// FleetOffset is the lateral position of the i-th ship of a fleet.
func FleetOffset(i int, spacing float64) float64 {
	off := spacing * float64((i+1)/2)
	if i%2 == 0 {
		off = -off
	}
	return off
}

// Tick advances the simulation by one step and hands the resulting packets
// to the host.
func (m *Match) Tick() {
	start := time.Now()
	m.runner.Tick(m.tick)
	m.state.Elapsed += m.tick
	m.flush()
	m.metrics.recordTick(time.Since(start))
}

// Run ticks at the configured rate until ctx is cancelled or every client
// has left.
func (m *Match) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.tick)
	defer ticker.Stop()

	m.log.Info("match started", zap.Duration("tick", m.tick))
	for {
		select {
		case <-ctx.Done():
			m.log.Info("match stopped", zap.Duration("elapsed", m.state.Elapsed))
			return nil
		case <-ticker.C:
			m.Tick()
			if m.everyoneLeft() {
				m.log.Info("all clients left", zap.Duration("elapsed", m.state.Elapsed))
				return nil
			}
		}
	}
}

func (m *Match) everyoneLeft() bool {
	for _, c := range m.state.Clients.All() {
		if !c.Departed() {
			return false
		}
	}
	return true
}

// flush moves the outbox to the host. The host never blocks; what it cannot
// take is counted and dropped.
func (m *Match) flush() {
	dropped := 0
	for _, p := range m.state.Outbox.Drain() {
		if !m.host.Send(p) {
			dropped++
		}
	}
	if dropped > 0 {
		m.dropped += dropped
		m.metrics.recordDropped(dropped)
		m.log.Warn("outbound queue full", zap.Int("dropped", dropped), zap.Int("total", m.dropped))
	}
}
