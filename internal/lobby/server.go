// Package lobby is the websocket front end. Ready clients are paired and
// their traffic is relayed to a match subprocess.
package lobby

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/navalrts/server/internal/config"
	gonet "github.com/navalrts/server/internal/net"
	"github.com/navalrts/server/internal/net/packet"
)

// helloTimeout bounds the wait for a new connection's LOBBY_HELLO.
const helloTimeout = 10 * time.Second

// Server is an http.Handler that upgrades to websocket. Roster and match
// bookkeeping live under mu; connection I/O happens outside it.
type Server struct {
	cfg      config.LobbyConfig
	maxFrame int
	spawner  MatchSpawner
	upgrader websocket.Upgrader
	ctx      context.Context
	cancel   context.CancelFunc
	log      *zap.Logger

	mu       sync.Mutex
	nextID   packet.ClientID
	sessions map[packet.ClientID]*session
	order    []packet.ClientID // join order, for the roster
	ready    []packet.ClientID // FIFO of clients waiting for an opponent
	matches  map[string]*activeMatch
	wg       sync.WaitGroup
}

func NewServer(cfg config.LobbyConfig, maxFrame int, spawner MatchSpawner, log *zap.Logger) *Server {
	if maxFrame <= 0 {
		maxFrame = gonet.DefaultMaxFrame
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 15 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.SendQueue <= 0 {
		cfg.SendQueue = 512
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		cfg:      cfg,
		maxFrame: maxFrame,
		spawner:  spawner,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		ctx:      ctx,
		cancel:   cancel,
		log:      log,
		nextID:   1,
		sessions: make(map[packet.ClientID]*session),
		matches:  make(map[string]*activeMatch),
	}
}

// ServeHTTP runs one client connection to completion.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("upgrade failed", zap.String("remote", r.RemoteAddr), zap.Error(err))
		return
	}
	conn.SetReadLimit(int64(s.maxFrame))

	name, err := s.readHello(conn)
	if err != nil {
		s.log.Info("handshake failed", zap.String("remote", r.RemoteAddr), zap.Error(err))
		conn.Close()
		return
	}

	sess := s.join(conn, name)
	go sess.writeLoop(s.cfg.PingInterval, s.cfg.WriteTimeout)

	s.readLoop(sess)
	s.leave(sess)
	sess.close()
}

func (s *Server) readHello(conn *websocket.Conn) (string, error) {
	conn.SetReadDeadline(time.Now().Add(helloTimeout))
	defer conn.SetReadDeadline(time.Time{})

	p, err := s.readPacket(conn)
	if err != nil {
		return "", err
	}
	if p.Op != packet.C_OPCODE_LOBBY_HELLO {
		return "", errUnexpected(p.Op)
	}
	var hello packet.LobbyHello
	if err := packet.NewReader(p).Decode(&hello); err != nil {
		return "", err
	}
	return hello.Name, nil
}

func (s *Server) readPacket(conn *websocket.Conn) (packet.Packet, error) {
	var p packet.Packet
	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			return p, err
		}
		if kind != websocket.BinaryMessage {
			continue
		}
		if err := packet.Unmarshal(data, &p); err != nil {
			return p, err
		}
		return p, nil
	}
}

// readLoop handles client traffic until the connection fails. The pong
// handler pushes the read deadline forward on every keepalive.
func (s *Server) readLoop(sess *session) {
	deadline := func() time.Time { return time.Now().Add(2 * s.cfg.PingInterval) }
	sess.conn.SetReadDeadline(deadline())
	sess.conn.SetPongHandler(func(string) error {
		return sess.conn.SetReadDeadline(deadline())
	})

	for {
		p, err := s.readPacket(sess.conn)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				sess.log.Info("connection lost", zap.Error(err))
			}
			return
		}
		sess.conn.SetReadDeadline(deadline())
		p.Client = sess.id
		s.handle(sess, p)
	}
}

func (s *Server) handle(sess *session, p packet.Packet) {
	switch p.Op {
	case packet.C_OPCODE_SET_READY:
		var msg packet.SetReady
		if err := packet.NewReader(p).Decode(&msg); err != nil {
			sess.log.Warn("bad set-ready", zap.Error(err))
			return
		}
		s.setReady(sess, msg.Ready)
	case packet.C_OPCODE_LOBBY_HELLO:
		sess.log.Warn("duplicate hello")
	case packet.C_OPCODE_CLIENT_LEFT:
		sess.log.Warn("client sent a host-only opcode")
	default:
		if p.Op < packet.C_OPCODE_HANDSHAKE_REPLY || p.Op > packet.C_OPCODE_USE_SMOKE {
			sess.log.Debug("unknown opcode", zap.Uint8("op", p.Op))
			return
		}
		s.relay(sess, p)
	}
}

// join registers a new client, welcomes it with the roster and tells
// everyone else.
func (s *Server) join(conn *websocket.Conn, rawName string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	sess := newSession(id, packet.NormalizeName(rawName, id), conn, s.cfg.SendQueue, s.log)
	s.sessions[id] = sess
	s.order = append(s.order, id)

	sess.sendPacket(packet.S_OPCODE_LOBBY_WELCOME, packet.LobbyWelcome{YourClient: id, Clients: s.rosterLocked()})
	for _, other := range s.sessions {
		if other.id != id {
			other.sendPacket(packet.S_OPCODE_CLIENT_JOINED, packet.ClientJoined{Client: sess.info()})
		}
	}
	sess.log.Info("client joined lobby", zap.String("name", sess.name))
	return sess
}

// leave removes a client. If it was playing, its match is told through a
// CLIENT_LEFT packet.
func (s *Server) leave(sess *session) {
	s.mu.Lock()
	m := sess.match
	delete(s.sessions, sess.id)
	s.order = removeID(s.order, sess.id)
	s.ready = removeID(s.ready, sess.id)
	for _, other := range s.sessions {
		other.sendPacket(packet.S_OPCODE_CLIENT_LEFT, packet.ClientDeparted{ID: sess.id})
	}
	s.mu.Unlock()

	if m != nil {
		if err := m.send(sess.id, packet.C_OPCODE_CLIENT_LEFT, packet.ClientLeft{}); err != nil {
			sess.log.Debug("notify match of departure", zap.Error(err))
		}
	}
	sess.log.Info("client left lobby")
}

func (s *Server) rosterLocked() []packet.ClientInfo {
	out := make([]packet.ClientInfo, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.sessions[id].info())
	}
	return out
}

// Close disconnects every client and stops running matches.
func (s *Server) Close() {
	s.cancel()
	s.mu.Lock()
	for _, sess := range s.sessions {
		sess.close()
	}
	for _, m := range s.matches {
		if m.proc != nil {
			m.proc.Close()
		}
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func removeID(ids []packet.ClientID, id packet.ClientID) []packet.ClientID {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
