package system

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/navalrts/server/internal/component"
	"github.com/navalrts/server/internal/core/ecs"
	"github.com/navalrts/server/internal/core/event"
	coresys "github.com/navalrts/server/internal/core/system"
	"github.com/navalrts/server/internal/net/packet"
	"github.com/navalrts/server/internal/world"
)

// EventSystem delivers the events emitted during the previous tick. Phase 5.
type EventSystem struct {
	world *world.State
	log   *zap.Logger
}

func NewEventSystem(ws *world.State, log *zap.Logger) *EventSystem {
	s := &EventSystem{world: ws, log: log}
	event.Subscribe(ws.Events, s.onShipSunk)
	event.Subscribe(ws.Events, s.onClientLeft)
	return s
}

func (s *EventSystem) Phase() coresys.Phase { return coresys.PhaseEvents }

func (s *EventSystem) Update(_ time.Duration) {
	s.world.Events.SwapBuffers()
	s.world.Events.DispatchAll()
}

func (s *EventSystem) onShipSunk(e event.ShipSunk) {
	st := s.world
	for _, id := range st.FireTargets.SortedIDs() {
		if ft, _ := st.FireTargets.Get(id); ft.Ship == e.Ship {
			st.FireTargets.Remove(id)
		}
	}

	owner := fmt.Sprintf("client %d", e.Team)
	if c, ok := st.Clients.Get(e.Team); ok && c.Name != "" {
		owner = c.Name
	}
	st.Outbox.Broadcast(packet.S_OPCODE_PRINT_MSG, packet.PrintMsg{Text: fmt.Sprintf("%s's %s was sunk", owner, e.Name)})

	remaining := 0
	st.Ships.Each(func(id ecs.EntityID, _ *component.Ship) {
		if t, ok := st.Teams.Get(id); ok && t.Client == e.Team {
			remaining++
		}
	})
	if remaining == 0 {
		st.Outbox.Broadcast(packet.S_OPCODE_PRINT_MSG, packet.PrintMsg{Text: fmt.Sprintf("%s's fleet has been destroyed", owner)})
		s.log.Info("fleet destroyed", zap.Uint32("team", uint32(e.Team)), zap.String("name", owner))
	}
}

func (s *EventSystem) onClientLeft(e event.ClientLeft) {
	name := fmt.Sprintf("client %d", e.Client)
	if c, ok := s.world.Clients.Get(e.Client); ok && c.Name != "" {
		name = c.Name
	}
	s.world.Outbox.Broadcast(packet.S_OPCODE_PRINT_MSG, packet.PrintMsg{Text: name + " left the match"})
}
