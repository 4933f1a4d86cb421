package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/navalrts/server/internal/component"
	"github.com/navalrts/server/internal/core/event"
	"github.com/navalrts/server/internal/net/packet"
)

func printed(t *testing.T, pkts []packet.Packet) []string {
	t.Helper()
	to, msgs := sent[packet.PrintMsg](t, pkts, packet.S_OPCODE_PRINT_MSG)
	var out []string
	for i, m := range msgs {
		// Messages are broadcast; keep one copy.
		if to[i] == 1 {
			out = append(out, m.Text)
		}
	}
	return out
}

func TestShipSunkClearsTargetsAndAnnounces(t *testing.T) {
	st := newTestWorld(t)
	c1, _ := st.Clients.Get(1)
	c1.Name = "alice"
	c2, _ := st.Clients.Get(2)
	c2.Name = "bob"

	a := spawn(t, st, "cutter", 1, 0, 0, 0)
	b := spawn(t, st, "cutter", 2, 3000, 0, 0)
	b2 := spawn(t, st, "escort", 2, 3000, 500, 0)
	st.FireTargets.Set(a, &component.FireTarget{Ship: b})
	sys := NewEventSystem(st, zap.NewNop())
	st.Outbox.Drain()

	st.Despawn(b)
	sys.Update(time.Second / 30)
	assert.False(t, st.FireTargets.Has(a))
	assert.Equal(t, []string{"bob's cutter was sunk"}, printed(t, st.Outbox.Drain()))

	st.Despawn(b2)
	sys.Update(time.Second / 30)
	assert.Equal(t, []string{"bob's escort was sunk", "bob's fleet has been destroyed"}, printed(t, st.Outbox.Drain()))
}

func TestFireTargetOnOtherShipSurvives(t *testing.T) {
	st := newTestWorld(t)
	a := spawn(t, st, "cutter", 1, 0, 0, 0)
	b := spawn(t, st, "cutter", 2, 3000, 0, 0)
	b2 := spawn(t, st, "cutter", 2, 3000, 500, 0)
	st.FireTargets.Set(a, &component.FireTarget{Ship: b2})
	sys := NewEventSystem(st, zap.NewNop())

	st.Despawn(b)
	sys.Update(time.Second / 30)
	ft, ok := st.FireTargets.Get(a)
	assert.True(t, ok)
	assert.Equal(t, b2, ft.Ship)
}

func TestClientLeftIsAnnounced(t *testing.T) {
	st := newTestWorld(t)
	c1, _ := st.Clients.Get(1)
	c1.Name = "alice"
	sys := NewEventSystem(st, zap.NewNop())

	event.Emit(st.Events, event.ClientLeft{Client: 2})
	event.Emit(st.Events, event.ClientLeft{Client: 1})
	sys.Update(time.Second / 30)
	assert.Equal(t, []string{"client 2 left the match", "alice left the match"}, printed(t, st.Outbox.Drain()))
}
