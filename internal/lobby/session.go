package lobby

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/navalrts/server/internal/net/packet"
)

type sessionState int

const (
	inLobby sessionState = iota
	readyForMatch
	inMatch
)

// session is one websocket client. The connection is read by the HTTP
// handler goroutine and written only by writeLoop. Fields below mu belong to
// the Server and are guarded by its lock.
type session struct {
	id   packet.ClientID
	name string
	conn *websocket.Conn

	out       chan []byte
	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool

	state sessionState
	match *activeMatch

	log *zap.Logger
}

func newSession(id packet.ClientID, name string, conn *websocket.Conn, queue int, log *zap.Logger) *session {
	return &session{
		id:      id,
		name:    name,
		conn:    conn,
		out:     make(chan []byte, queue),
		closeCh: make(chan struct{}),
		log:     log.With(zap.Uint32("client", uint32(id))),
	}
}

func (s *session) info() packet.ClientInfo {
	return packet.ClientInfo{ID: s.id, Name: s.name}
}

// sendPacket encodes and queues one message for the client.
func (s *session) sendPacket(op byte, body any) {
	p, err := packet.NewPacket(s.id, op, body)
	if err != nil {
		s.log.Error("encode lobby packet", zap.Error(err))
		return
	}
	s.forward(p)
}

// forward queues a packet without blocking. A client that cannot keep up is
// disconnected.
func (s *session) forward(p packet.Packet) {
	if s.closed.Load() {
		return
	}
	data, err := packet.Marshal(p)
	if err != nil {
		s.log.Error("encode packet", zap.Error(err))
		return
	}
	select {
	case s.out <- data:
	default:
		s.log.Warn("send queue full, disconnecting slow client")
		s.close()
	}
}

// close stops the session. writeLoop flushes the queue and closes the
// connection, which in turn ends the reader.
func (s *session) close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.closeCh)
	})
}

// writeLoop drains the send queue and keeps the connection alive with pings.
func (s *session) writeLoop(ping, writeTimeout time.Duration) {
	ticker := time.NewTicker(ping)
	defer ticker.Stop()
	defer s.conn.Close()
	defer s.close()

	for {
		select {
		case data := <-s.out:
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
				s.log.Debug("write error", zap.Error(err))
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.log.Debug("ping error", zap.Error(err))
				return
			}
		case <-s.closeCh:
			for len(s.out) > 0 {
				s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := s.conn.WriteMessage(websocket.BinaryMessage, <-s.out); err != nil {
					return
				}
			}
			s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeTimeout))
			return
		}
	}
}
