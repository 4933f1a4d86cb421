package system

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/navalrts/server/internal/core/event"
	coresys "github.com/navalrts/server/internal/core/system"
	"github.com/navalrts/server/internal/net/packet"
	"github.com/navalrts/server/internal/world"
)

// Inbox is the inbound half of the host bridge.
type Inbox interface {
	In() <-chan packet.Packet
}

// RejectCounter is told about every inbound packet that was dropped.
type RejectCounter interface {
	Reject(reason string)
}

// InputSystem drains the inbound queue without blocking and dispatches each
// packet through the registry. Phase 0 (Input).
type InputSystem struct {
	in         <-chan packet.Packet
	registry   *packet.Registry
	world      *world.State
	maxPerTick int
	rejects    RejectCounter
	log        *zap.Logger
}

func NewInputSystem(inbox Inbox, registry *packet.Registry, ws *world.State, maxPerTick int, rejects RejectCounter, log *zap.Logger) *InputSystem {
	return &InputSystem{
		in:         inbox.In(),
		registry:   registry,
		world:      ws,
		maxPerTick: maxPerTick,
		rejects:    rejects,
		log:        log,
	}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	for i := 0; s.maxPerTick <= 0 || i < s.maxPerTick; i++ {
		select {
		case p, ok := <-s.in:
			if !ok {
				s.hostClosed()
				return
			}
			s.dispatch(p)
		default:
			return
		}
	}
}

func (s *InputSystem) dispatch(p packet.Packet) {
	c, ok := s.world.Clients.Get(p.Client)
	if !ok {
		s.reject("unknown_client")
		s.log.Warn("packet from unknown client", zap.Uint32("client", uint32(p.Client)), zap.String("op", packet.OpcodeName(p.Op)))
		return
	}
	if c.Departed() {
		s.reject("departed")
		return
	}
	if !c.Allow() {
		s.reject("rate_limited")
		s.log.Debug("command rate exceeded", zap.Uint32("client", uint32(c.ID)), zap.String("op", packet.OpcodeName(p.Op)))
		return
	}
	if err := s.registry.Dispatch(c, c.State, p); err != nil {
		s.reject(RejectReason(err))
		s.log.Warn("dispatch failed", zap.Uint32("client", uint32(c.ID)), zap.Error(err))
	}
}

// RejectReason classifies a Registry.Dispatch error for metrics.
func RejectReason(err error) string {
	switch {
	case errors.Is(err, packet.ErrUnknownOpcode):
		return "unknown_opcode"
	case errors.Is(err, packet.ErrStateNotAllowed):
		return "bad_state"
	}
	return "handler"
}

// hostClosed handles the inbound stream ending: nobody can be heard from
// again, so every client is treated as departed. The simulation keeps running.
func (s *InputSystem) hostClosed() {
	s.in = nil
	s.log.Warn("inbound stream closed")
	for _, c := range s.world.Clients.All() {
		if s.world.Clients.Depart(c.ID) {
			event.Emit(s.world.Events, event.ClientLeft{Client: c.ID})
		}
	}
}

func (s *InputSystem) reject(reason string) {
	if s.rejects != nil {
		s.rejects.Reject(reason)
	}
}
