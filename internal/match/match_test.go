package match

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navalrts/server/internal/config"
	"github.com/navalrts/server/internal/data"
	"github.com/navalrts/server/internal/net/packet"
)

const testShips = `
ships:
  - name: cutter
    hull: {length: 100, width: 10, freeboard: 5, draft: 4}
    max_speed_kts: 20
    health: 1000
    detection: 5000
  - name: tender
    hull: {length: 60, width: 8, freeboard: 4, draft: 3}
    max_speed_kts: 12
    health: 500
    detection: 4000
`

type fakeHost struct {
	in   chan packet.Packet
	out  []packet.Packet
	room int // negative means unlimited
}

func newFakeHost() *fakeHost {
	return &fakeHost{in: make(chan packet.Packet, 16), room: -1}
}

func (h *fakeHost) In() <-chan packet.Packet { return h.in }

func (h *fakeHost) Send(p packet.Packet) bool {
	if h.room == 0 {
		return false
	}
	if h.room > 0 {
		h.room--
	}
	h.out = append(h.out, p)
	return true
}

func (h *fakeHost) push(t *testing.T, from packet.ClientID, op byte, body any) {
	t.Helper()
	p, err := packet.NewPacket(from, op, body)
	require.NoError(t, err)
	h.in <- p
}

func (h *fakeHost) take(op byte) []packet.Packet {
	var keep, got []packet.Packet
	for _, p := range h.out {
		if p.Op == op {
			got = append(got, p)
		} else {
			keep = append(keep, p)
		}
	}
	h.out = keep
	return got
}

func testOptions(t *testing.T) Options {
	t.Helper()
	table, err := data.ParseShipTable([]byte(testShips))
	require.NoError(t, err)
	return Options{
		Match: config.MatchConfig{
			TickRate:          time.Millisecond,
			Clients:           2,
			MaxPacketsPerTick: 16,
		},
		Fleet: config.FleetConfig{
			Ships:         []string{"cutter", "tender", "cutter"},
			SpawnDistance: 8000,
			ShipSpacing:   400,
		},
		Catalog: table,
		RNG:     rand.New(rand.NewPCG(1, 2)),
	}
}

func newMatch(t *testing.T) (*Match, *fakeHost) {
	t.Helper()
	host := newFakeHost()
	m, err := New(host, []packet.ClientID{1, 2}, testOptions(t))
	require.NoError(t, err)
	return m, host
}

func handshake(t *testing.T, m *Match, host *fakeHost) {
	t.Helper()
	host.push(t, 1, packet.C_OPCODE_HANDSHAKE_REPLY, packet.HandshakeReply{Name: "alice"})
	host.push(t, 2, packet.C_OPCODE_HANDSHAKE_REPLY, packet.HandshakeReply{Name: "bob"})
	require.NoError(t, m.Handshake(context.Background()))
}

func TestNewValidates(t *testing.T) {
	opts := testOptions(t)
	_, err := New(newFakeHost(), []packet.ClientID{1}, opts)
	assert.Error(t, err, "wrong client count")

	_, err = New(newFakeHost(), []packet.ClientID{1, 1}, opts)
	assert.Error(t, err, "duplicate client")

	opts.Fleet.Ships = []string{"yamato"}
	_, err = New(newFakeHost(), []packet.ClientID{1, 2}, opts)
	assert.Error(t, err, "unknown fleet ship")
}

func TestHandshake(t *testing.T) {
	m, host := newMatch(t)
	// A stray packet from a stranger does not count towards the handshake.
	host.push(t, 9, packet.C_OPCODE_HANDSHAKE_REPLY, packet.HandshakeReply{Name: "eve"})
	handshake(t, m, host)

	a := host.take(packet.S_OPCODE_HANDSHAKE_A)
	require.Len(t, a, 2)
	for _, p := range a {
		var msg packet.HandshakeA
		require.NoError(t, packet.NewReader(p).Decode(&msg))
		assert.Equal(t, p.Client, msg.YourClient)
	}

	b := host.take(packet.S_OPCODE_HANDSHAKE_B)
	require.Len(t, b, 2)
	var roster packet.HandshakeB
	require.NoError(t, packet.NewReader(b[0]).Decode(&roster))
	assert.Equal(t, []packet.ClientInfo{{ID: 1, Name: "alice"}, {ID: 2, Name: "bob"}}, roster.Clients)
}

func TestHandshakeFailsWhenStreamCloses(t *testing.T) {
	m, host := newMatch(t)
	host.push(t, 1, packet.C_OPCODE_HANDSHAKE_REPLY, packet.HandshakeReply{Name: "alice"})
	close(host.in)

	err := m.Handshake(context.Background())
	assert.ErrorIs(t, err, ErrHandshakeClosed)
}

func TestHandshakeFailsWhenClientLeaves(t *testing.T) {
	m, host := newMatch(t)
	host.push(t, 1, packet.C_OPCODE_HANDSHAKE_REPLY, packet.HandshakeReply{Name: "alice"})
	host.push(t, 2, packet.C_OPCODE_CLIENT_LEFT, packet.ClientLeft{})

	err := m.Handshake(context.Background())
	assert.ErrorIs(t, err, ErrHandshakeClosed)
}

func TestHandshakeHonoursContext(t *testing.T) {
	m, _ := newMatch(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Handshake(ctx), context.Canceled)
}

func TestFleetOffset(t *testing.T) {
	want := []float64{0, 400, -400, 800, -800}
	for i, w := range want {
		assert.Equal(t, w, FleetOffset(i, 400), "ship %d", i)
	}
}

func TestSpawnFleets(t *testing.T) {
	m, host := newMatch(t)
	handshake(t, m, host)
	m.SpawnFleets()

	st := m.State()
	assert.Equal(t, 6, st.Ships.Len())
	spawns := host.take(packet.S_OPCODE_SPAWN_SHIP)
	require.Len(t, spawns, 12, "every spawn goes to both clients")

	for _, id := range st.Ships.SortedIDs() {
		team, _ := st.Teams.Get(id)
		tr, _ := st.Transforms.Get(id)
		switch team.Client {
		case 1:
			assert.Equal(t, 8000.0, tr.Pos.X)
			assert.Equal(t, math.Pi, tr.Heading)
		case 2:
			assert.Equal(t, -8000.0, tr.Pos.X)
			assert.Equal(t, 0.0, tr.Heading)
		default:
			t.Fatalf("unexpected team %d", team.Client)
		}
		assert.Contains(t, []float64{0, 400, -400}, tr.Pos.Y)
	}
}

func TestTickCountsDroppedPackets(t *testing.T) {
	m, host := newMatch(t)
	handshake(t, m, host)
	host.room = 3
	m.SpawnFleets()
	assert.Equal(t, 9, m.dropped)

	host.room = -1
	host.out = nil
	m.Tick()
	assert.NotEmpty(t, host.out, "first tick replicates every ship")
}

func TestTickAppliesCommands(t *testing.T) {
	m, host := newMatch(t)
	handshake(t, m, host)
	host.out = nil

	host.push(t, 1, packet.C_OPCODE_ECHO, packet.Echo{Text: "ping"})
	m.Tick()
	msgs := host.take(packet.S_OPCODE_PRINT_MSG)
	require.Len(t, msgs, 1)
	assert.Equal(t, packet.ClientID(1), msgs[0].Client)
	assert.Equal(t, time.Millisecond, m.State().Elapsed)
}

func TestRunStopsWhenEveryoneLeft(t *testing.T) {
	m, host := newMatch(t)
	handshake(t, m, host)
	m.SpawnFleets()
	host.push(t, 1, packet.C_OPCODE_CLIENT_LEFT, packet.ClientLeft{})
	host.push(t, 2, packet.C_OPCODE_CLIENT_LEFT, packet.ClientLeft{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, m.Run(ctx))
	assert.NoError(t, ctx.Err(), "returned before the deadline")
}

func TestRunStopsOnCancel(t *testing.T) {
	m, host := newMatch(t)
	handshake(t, m, host)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, m.Run(ctx))
	assert.Positive(t, m.State().Elapsed)
}
