package handler

import (
	"go.uber.org/zap"

	"github.com/navalrts/server/internal/net/packet"
	"github.com/navalrts/server/internal/world"
)

// Deps holds shared dependencies injected into all packet handlers.
type Deps struct {
	World *world.State
	Log   *zap.Logger
}

// RegisterAll registers all match packet handlers into the registry.
func RegisterAll(reg *packet.Registry, deps *Deps) {
	// Handshake phase
	reg.Register(packet.C_OPCODE_HANDSHAKE_REPLY,
		[]packet.ClientState{packet.StateHandshake},
		func(sess any, r *packet.Reader) {
			HandleHandshakeReply(sess.(*world.Client), r, deps)
		},
	)

	// In-match phase
	inMatch := []packet.ClientState{packet.StateInMatch}

	reg.Register(packet.C_OPCODE_ECHO, inMatch,
		func(sess any, r *packet.Reader) {
			HandleEcho(sess.(*world.Client), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_SET_MOVE_ORDER, inMatch,
		func(sess any, r *packet.Reader) {
			HandleSetMoveOrder(sess.(*world.Client), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_SET_FIRE_TARGET, inMatch,
		func(sess any, r *packet.Reader) {
			HandleSetFireTarget(sess.(*world.Client), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_LAUNCH_TORPEDOES, inMatch,
		func(sess any, r *packet.Reader) {
			HandleLaunchTorpedoes(sess.(*world.Client), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_USE_SMOKE, inMatch,
		func(sess any, r *packet.Reader) {
			HandleUseSmoke(sess.(*world.Client), r, deps)
		},
	)

	// The host reports a closed connection in either phase.
	reg.Register(packet.C_OPCODE_CLIENT_LEFT,
		[]packet.ClientState{packet.StateHandshake, packet.StateInMatch},
		func(sess any, r *packet.Reader) {
			HandleClientLeft(sess.(*world.Client), r, deps)
		},
	)
}
