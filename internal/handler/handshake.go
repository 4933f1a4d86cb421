package handler

import (
	"go.uber.org/zap"

	"github.com/navalrts/server/internal/core/event"
	"github.com/navalrts/server/internal/net/packet"
	"github.com/navalrts/server/internal/world"
)

// HandleHandshakeReply records the client's display name and moves it into
// the match.
func HandleHandshakeReply(c *world.Client, r *packet.Reader, deps *Deps) {
	var msg packet.HandshakeReply
	if err := r.Decode(&msg); err != nil {
		deps.Log.Warn("bad handshake reply", zap.Uint32("client", uint32(c.ID)), zap.Error(err))
		return
	}
	c.Name = packet.NormalizeName(msg.Name, c.ID)
	c.State = packet.StateInMatch
	deps.Log.Info("client joined", zap.Uint32("client", uint32(c.ID)), zap.String("name", c.Name))
}

// HandleEcho answers with a print message to the sender only.
func HandleEcho(c *world.Client, r *packet.Reader, deps *Deps) {
	var msg packet.Echo
	if err := r.Decode(&msg); err != nil {
		return
	}
	deps.World.Outbox.Send(c.ID, packet.S_OPCODE_PRINT_MSG, packet.PrintMsg{Text: msg.Text})
}

// HandleClientLeft marks the client departed. Its ships stay in play.
func HandleClientLeft(c *world.Client, _ *packet.Reader, deps *Deps) {
	if !deps.World.Clients.Depart(c.ID) {
		return
	}
	event.Emit(deps.World.Events, event.ClientLeft{Client: c.ID})
	deps.Log.Info("client left", zap.Uint32("client", uint32(c.ID)), zap.String("name", c.Name))
}
