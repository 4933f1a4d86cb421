package world

import (
	"go.uber.org/zap"

	"github.com/navalrts/server/internal/net/packet"
)

// Outbox collects the packets produced during a tick. The match loop drains
// it into the outbound queue at the end of the tick.
type Outbox struct {
	clients *Clients
	pending []packet.Packet
	log     *zap.Logger
}

func NewOutbox(clients *Clients, log *zap.Logger) *Outbox {
	return &Outbox{
		clients: clients,
		pending: make([]packet.Packet, 0, 256),
		log:     log,
	}
}

// Send queues body for one client. Messages to unknown or departed clients
// are discarded.
func (o *Outbox) Send(to packet.ClientID, op byte, body any) {
	c, ok := o.clients.Get(to)
	if !ok || c.Departed() {
		return
	}
	o.push(to, op, body)
}

// Broadcast queues body for every client still in the match.
func (o *Outbox) Broadcast(op byte, body any) {
	for _, c := range o.clients.All() {
		if !c.Departed() {
			o.push(c.ID, op, body)
		}
	}
}

func (o *Outbox) push(to packet.ClientID, op byte, body any) {
	p, err := packet.NewPacket(to, op, body)
	if err != nil {
		o.log.Error("encode outbound", zap.Error(err))
		return
	}
	o.pending = append(o.pending, p)
}

// Drain returns and clears the queued packets.
func (o *Outbox) Drain() []packet.Packet {
	out := o.pending
	o.pending = make([]packet.Packet, 0, cap(out))
	return out
}

func (o *Outbox) Len() int { return len(o.pending) }
