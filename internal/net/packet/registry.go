package packet

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrUnknownOpcode is returned by Dispatch for opcodes with no handler.
var ErrUnknownOpcode = errors.New("unknown opcode")

// ErrStateNotAllowed is returned by Dispatch when the opcode is registered
// but not for the client's current state.
var ErrStateNotAllowed = errors.New("opcode not allowed in state")

// ClientState represents a client's current protocol phase.
type ClientState int

const (
	StateHandshake ClientState = iota // awaiting handshake reply
	StateInMatch                      // playing
	StateDeparted                     // left; inbound traffic is ignored
)

func (s ClientState) String() string {
	switch s {
	case StateHandshake:
		return "Handshake"
	case StateInMatch:
		return "InMatch"
	case StateDeparted:
		return "Departed"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// HandlerFunc is the callback signature for packet handlers.
// The client record is passed as an opaque interface to avoid import cycles.
type HandlerFunc func(sess any, r *Reader)

type handlerEntry struct {
	fn            HandlerFunc
	allowedStates map[ClientState]bool
}

// Registry maps opcodes to handlers with state-based access control.
type Registry struct {
	handlers map[byte]*handlerEntry
	log      *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		handlers: make(map[byte]*handlerEntry),
		log:      log,
	}
}

// Register maps an opcode to a handler, restricted to the given states.
func (reg *Registry) Register(opcode byte, states []ClientState, fn HandlerFunc) {
	allowed := make(map[ClientState]bool, len(states))
	for _, s := range states {
		allowed[s] = true
	}
	reg.handlers[opcode] = &handlerEntry{
		fn:            fn,
		allowedStates: allowed,
	}
}

// Has reports whether opcode has a handler.
func (reg *Registry) Has(opcode byte) bool {
	_, ok := reg.handlers[opcode]
	return ok
}

// Dispatch finds the handler for the packet's opcode, validates the client
// state, and calls the handler.
func (reg *Registry) Dispatch(sess any, state ClientState, p Packet) error {
	reg.log.Debug("RX",
		zap.String("op", OpcodeName(p.Op)),
		zap.Uint32("client", uint32(p.Client)),
		zap.Int("size", len(p.Body)),
		zap.String("state", state.String()),
	)

	entry, ok := reg.handlers[p.Op]
	if !ok {
		return fmt.Errorf("%w %d", ErrUnknownOpcode, p.Op)
	}
	if !entry.allowedStates[state] {
		return fmt.Errorf("%w: %s in %s", ErrStateNotAllowed, OpcodeName(p.Op), state)
	}
	return reg.safeCall(entry.fn, sess, NewReader(p))
}

// safeCall executes a handler with panic recovery so a single bad message
// cannot take down the tick loop.
func (reg *Registry) safeCall(fn HandlerFunc, sess any, r *Reader) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			reg.log.Error("handler panic recovered",
				zap.String("op", OpcodeName(r.Opcode())),
				zap.Uint32("client", uint32(r.Client())),
				zap.Any("panic", rec),
			)
			err = fmt.Errorf("handler panic for %s: %v", OpcodeName(r.Opcode()), rec)
		}
	}()
	fn(sess, r)
	return nil
}
