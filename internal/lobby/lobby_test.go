package lobby

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/navalrts/server/internal/config"
	"github.com/navalrts/server/internal/net/packet"
)

type fakeProcess struct {
	toMatch   chan packet.Packet
	fromMatch chan packet.Packet
	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeProcess() *fakeProcess {
	return &fakeProcess{
		toMatch:   make(chan packet.Packet, 16),
		fromMatch: make(chan packet.Packet, 16),
		closed:    make(chan struct{}),
	}
}

func (p *fakeProcess) Send(pkt packet.Packet) error {
	select {
	case <-p.closed:
		return io.ErrClosedPipe
	case p.toMatch <- pkt:
		return nil
	}
}

func (p *fakeProcess) Recv() (packet.Packet, error) {
	select {
	case <-p.closed:
		return packet.Packet{}, io.EOF
	case pkt, ok := <-p.fromMatch:
		if !ok {
			return packet.Packet{}, io.EOF
		}
		return pkt, nil
	}
}

func (p *fakeProcess) Close() error {
	p.closeOnce.Do(func() { close(p.closed) })
	return nil
}

type fakeSpawner struct {
	calls chan []packet.ClientID
	procs chan *fakeProcess
	err   error
}

func newFakeSpawner() *fakeSpawner {
	return &fakeSpawner{
		calls: make(chan []packet.ClientID, 4),
		procs: make(chan *fakeProcess, 4),
	}
}

func (s *fakeSpawner) Spawn(_ context.Context, clients []packet.ClientID) (MatchProcess, error) {
	s.calls <- clients
	if s.err != nil {
		return nil, s.err
	}
	p := newFakeProcess()
	s.procs <- p
	return p, nil
}

func testLobby(t *testing.T, spawner MatchSpawner) (*Server, string) {
	t.Helper()
	srv := NewServer(config.LobbyConfig{PingInterval: time.Hour, WriteTimeout: time.Second, SendQueue: 32},
		0, spawner, zap.NewNop())
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	t.Cleanup(srv.Close)
	return srv, "ws" + strings.TrimPrefix(ts.URL, "http")
}

func send(t *testing.T, conn *websocket.Conn, op byte, body any) {
	t.Helper()
	p, err := packet.NewPacket(0, op, body)
	require.NoError(t, err)
	data, err := packet.Marshal(p)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, data))
}

// expect reads the next message and requires it to carry op, decoding the
// body into out when non-nil.
func expect(t *testing.T, conn *websocket.Conn, op byte, out any) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var p packet.Packet
	require.NoError(t, packet.Unmarshal(data, &p))
	require.Equal(t, packet.OpcodeName(op), packet.OpcodeName(p.Op))
	if out != nil {
		require.NoError(t, packet.NewReader(p).Decode(out))
	}
}

func join(t *testing.T, url, name string) (*websocket.Conn, packet.LobbyWelcome) {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	send(t, conn, packet.C_OPCODE_LOBBY_HELLO, packet.LobbyHello{Name: name})
	var welcome packet.LobbyWelcome
	expect(t, conn, packet.S_OPCODE_LOBBY_WELCOME, &welcome)
	return conn, welcome
}

func takeProc(t *testing.T, s *fakeSpawner) ([]packet.ClientID, *fakeProcess) {
	t.Helper()
	select {
	case clients := <-s.calls:
		select {
		case p := <-s.procs:
			return clients, p
		case <-time.After(2 * time.Second):
			t.Fatal("no process")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("spawn not called")
	}
	return nil, nil
}

func recvFromClient(t *testing.T, p *fakeProcess) packet.Packet {
	t.Helper()
	select {
	case pkt := <-p.toMatch:
		return pkt
	case <-time.After(2 * time.Second):
		t.Fatal("nothing relayed to match")
	}
	return packet.Packet{}
}

func TestJoinAndRoster(t *testing.T) {
	_, url := testLobby(t, newFakeSpawner())

	alice, w1 := join(t, url, "  alice ")
	assert.Equal(t, packet.ClientID(1), w1.YourClient)
	assert.Equal(t, []packet.ClientInfo{{ID: 1, Name: "alice"}}, w1.Clients)

	bob, w2 := join(t, url, "")
	assert.Equal(t, packet.ClientID(2), w2.YourClient)
	assert.Equal(t, []packet.ClientInfo{{ID: 1, Name: "alice"}, {ID: 2, Name: "Captain 2"}}, w2.Clients)

	var joined packet.ClientJoined
	expect(t, alice, packet.S_OPCODE_CLIENT_JOINED, &joined)
	assert.Equal(t, packet.ClientInfo{ID: 2, Name: "Captain 2"}, joined.Client)

	require.NoError(t, bob.Close())
	var left packet.ClientDeparted
	expect(t, alice, packet.S_OPCODE_CLIENT_LEFT, &left)
	assert.Equal(t, packet.ClientID(2), left.ID)
}

func TestFirstMessageMustBeHello(t *testing.T) {
	_, url := testLobby(t, newFakeSpawner())

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	send(t, conn, packet.C_OPCODE_SET_READY, packet.SetReady{Ready: true})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}

func TestMatchLifecycle(t *testing.T) {
	spawner := newFakeSpawner()
	_, url := testLobby(t, spawner)

	alice, _ := join(t, url, "alice")
	bob, _ := join(t, url, "bob")
	expect(t, alice, packet.S_OPCODE_CLIENT_JOINED, nil)

	send(t, alice, packet.C_OPCODE_SET_READY, packet.SetReady{Ready: true})
	send(t, bob, packet.C_OPCODE_SET_READY, packet.SetReady{Ready: true})

	clients, proc := takeProc(t, spawner)
	assert.ElementsMatch(t, []packet.ClientID{1, 2}, clients)

	var aj, bj packet.MatchJoined
	expect(t, alice, packet.S_OPCODE_MATCH_JOINED, &aj)
	expect(t, bob, packet.S_OPCODE_MATCH_JOINED, &bj)
	assert.Equal(t, packet.ClientInfo{ID: 2, Name: "bob"}, aj.Opponent)
	assert.Equal(t, packet.ClientInfo{ID: 1, Name: "alice"}, bj.Opponent)
	assert.Equal(t, aj.MatchID, bj.MatchID)
	assert.NotEmpty(t, aj.MatchID)

	// Client-originated CLIENT_LEFT is dropped; the echo behind it arrives
	// stamped with the sender's id.
	send(t, alice, packet.C_OPCODE_CLIENT_LEFT, packet.ClientLeft{})
	send(t, alice, packet.C_OPCODE_ECHO, packet.Echo{Text: "hi"})
	got := recvFromClient(t, proc)
	assert.Equal(t, packet.C_OPCODE_ECHO, got.Op)
	assert.Equal(t, packet.ClientID(1), got.Client)

	out, err := packet.NewPacket(2, packet.S_OPCODE_PRINT_MSG, packet.PrintMsg{Text: "hello bob"})
	require.NoError(t, err)
	proc.fromMatch <- out
	var msg packet.PrintMsg
	expect(t, bob, packet.S_OPCODE_PRINT_MSG, &msg)
	assert.Equal(t, "hello bob", msg.Text)

	require.NoError(t, bob.Close())
	got = recvFromClient(t, proc)
	assert.Equal(t, packet.C_OPCODE_CLIENT_LEFT, got.Op)
	assert.Equal(t, packet.ClientID(2), got.Client)
	expect(t, alice, packet.S_OPCODE_CLIENT_LEFT, nil)

	close(proc.fromMatch)
	var ended packet.MatchEnded
	expect(t, alice, packet.S_OPCODE_MATCH_ENDED, &ended)
	assert.Equal(t, aj.MatchID, ended.MatchID)
	assert.Equal(t, "finished", ended.Reason)
}

func TestSpawnFailureReturnsClientsToLobby(t *testing.T) {
	spawner := newFakeSpawner()
	spawner.err = errors.New("no binary")
	_, url := testLobby(t, spawner)

	alice, _ := join(t, url, "alice")
	bob, _ := join(t, url, "bob")
	expect(t, alice, packet.S_OPCODE_CLIENT_JOINED, nil)

	send(t, alice, packet.C_OPCODE_SET_READY, packet.SetReady{Ready: true})
	send(t, bob, packet.C_OPCODE_SET_READY, packet.SetReady{Ready: true})

	var ended packet.MatchEnded
	expect(t, alice, packet.S_OPCODE_MATCH_ENDED, &ended)
	assert.Equal(t, "spawn failed", ended.Reason)
	expect(t, bob, packet.S_OPCODE_MATCH_ENDED, nil)

	// Both are back in the lobby and can queue again.
	send(t, alice, packet.C_OPCODE_SET_READY, packet.SetReady{Ready: true})
	send(t, bob, packet.C_OPCODE_SET_READY, packet.SetReady{Ready: true})
	expect(t, alice, packet.S_OPCODE_MATCH_ENDED, nil)
}

func TestReadyQueue(t *testing.T) {
	spawner := newFakeSpawner()
	srv := NewServer(config.LobbyConfig{}, 0, spawner, zap.NewNop())
	t.Cleanup(srv.Close)

	sessions := make([]*session, 4)
	for i := 1; i <= 3; i++ {
		id := packet.ClientID(i)
		sessions[i] = newSession(id, "s", nil, 8, zap.NewNop())
		srv.sessions[id] = sessions[i]
	}

	srv.setReady(sessions[1], true)
	srv.setReady(sessions[1], true)
	assert.Equal(t, []packet.ClientID{1}, srv.ready)

	srv.setReady(sessions[1], false)
	assert.Empty(t, srv.ready)
	assert.Equal(t, inLobby, sessions[1].state)

	srv.setReady(sessions[2], true)
	srv.setReady(sessions[3], true)
	clients, _ := takeProc(t, spawner)
	assert.Equal(t, []packet.ClientID{2, 3}, clients)

	srv.mu.Lock()
	assert.Empty(t, srv.ready)
	assert.Equal(t, inMatch, sessions[2].state)
	assert.Equal(t, inMatch, sessions[3].state)
	srv.mu.Unlock()

	// Ready is ignored mid-match.
	srv.setReady(sessions[2], false)
	srv.mu.Lock()
	assert.Equal(t, inMatch, sessions[2].state)
	srv.mu.Unlock()
}
