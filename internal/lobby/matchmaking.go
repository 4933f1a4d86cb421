package lobby

import (
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/navalrts/server/internal/net/packet"
)

const (
	endFinished    = "finished"
	endSpawnFailed = "spawn failed"
	endShutdown    = "shutdown"
)

func errUnexpected(op byte) error {
	return fmt.Errorf("expected %s, got %s",
		packet.OpcodeName(packet.C_OPCODE_LOBBY_HELLO), packet.OpcodeName(op))
}

// activeMatch pairs a match process with the clients playing in it.
type activeMatch struct {
	id      string
	clients []packet.ClientID
	proc    MatchProcess
	log     *zap.Logger
}

func (m *activeMatch) send(client packet.ClientID, op byte, body any) error {
	p, err := packet.NewPacket(client, op, body)
	if err != nil {
		return err
	}
	return m.proc.Send(p)
}

// setReady moves a lobby client in or out of the ready queue. Two ready
// clients are paired immediately.
func (s *Server) setReady(sess *session, ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case sess.state == inMatch:
		sess.log.Debug("set-ready ignored while in a match")
		return
	case ready && sess.state == inLobby:
		sess.state = readyForMatch
		s.ready = append(s.ready, sess.id)
	case !ready && sess.state == readyForMatch:
		sess.state = inLobby
		s.ready = removeID(s.ready, sess.id)
	default:
		return
	}

	for len(s.ready) >= 2 {
		pair := []packet.ClientID{s.ready[0], s.ready[1]}
		s.ready = s.ready[2:]
		m := &activeMatch{id: uuid.NewString(), clients: pair}
		m.log = s.log.With(zap.String("match", m.id))
		for _, id := range pair {
			s.sessions[id].state = inMatch
		}
		s.matches[m.id] = m
		s.wg.Add(1)
		go s.runMatch(m)
	}
}

// relay forwards an in-match command to the client's match process.
// Commands from clients not in a match are dropped.
func (s *Server) relay(sess *session, p packet.Packet) {
	s.mu.Lock()
	m := sess.match
	s.mu.Unlock()
	if m == nil {
		sess.log.Debug("dropping match command outside a match", zap.String("op", packet.OpcodeName(p.Op)))
		return
	}
	if err := m.proc.Send(p); err != nil {
		sess.log.Debug("relay to match", zap.Error(err))
	}
}

// runMatch spawns the process, announces the pairing and routes the
// process's output to its clients until it exits.
func (s *Server) runMatch(m *activeMatch) {
	defer s.wg.Done()

	proc, err := s.spawner.Spawn(s.ctx, m.clients)
	if err != nil {
		m.log.Error("spawn match", zap.Error(err))
		s.endMatch(m, endSpawnFailed)
		return
	}

	s.mu.Lock()
	m.proc = proc
	if s.ctx.Err() != nil {
		// Close ran while spawning and could not see the process.
		s.mu.Unlock()
		proc.Close()
		s.endMatch(m, endShutdown)
		return
	}
	var live []*session
	for _, id := range m.clients {
		if sess, ok := s.sessions[id]; ok {
			sess.match = m
			live = append(live, sess)
		}
	}
	s.mu.Unlock()

	// A client that left during the spawn never got a match pointer, so
	// the process learns about it here.
	for _, id := range m.clients {
		if !containsSession(live, id) {
			if err := m.send(id, packet.C_OPCODE_CLIENT_LEFT, packet.ClientLeft{}); err != nil {
				m.log.Debug("notify match of departure", zap.Error(err))
			}
		}
	}
	for _, sess := range live {
		for _, other := range live {
			if other != sess {
				sess.sendPacket(packet.S_OPCODE_MATCH_JOINED, packet.MatchJoined{MatchID: m.id, Opponent: other.info()})
			}
		}
	}
	m.log.Info("match started", zap.Int("clients", len(m.clients)))

	for {
		p, err := proc.Recv()
		if err != nil {
			if !errors.Is(err, io.EOF) && s.ctx.Err() == nil {
				m.log.Warn("match stream ended", zap.Error(err))
			}
			break
		}
		s.mu.Lock()
		sess, ok := s.sessions[p.Client]
		if ok && sess.match != m {
			ok = false
		}
		s.mu.Unlock()
		if ok {
			sess.forward(p)
		}
	}

	if err := proc.Close(); err != nil {
		m.log.Debug("match process exit", zap.Error(err))
	}
	reason := endFinished
	if s.ctx.Err() != nil {
		reason = endShutdown
	}
	s.endMatch(m, reason)
}

// endMatch returns the match's remaining clients to the lobby.
func (s *Server) endMatch(m *activeMatch, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.matches, m.id)
	for _, id := range m.clients {
		sess, ok := s.sessions[id]
		if !ok {
			continue
		}
		sess.state = inLobby
		sess.match = nil
		sess.sendPacket(packet.S_OPCODE_MATCH_ENDED, packet.MatchEnded{MatchID: m.id, Reason: reason})
	}
	m.log.Info("match ended", zap.String("reason", reason))
}

func containsSession(list []*session, id packet.ClientID) bool {
	for _, s := range list {
		if s.id == id {
			return true
		}
	}
	return false
}
