package packet

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// ClientID identifies a connected player for the lifetime of the lobby.
type ClientID uint32

// SharedID is the wire name of a simulation entity. It is never reused within
// one match.
type SharedID uint64

// Packet is one framed message between the match and its host. Client is the
// sender for inbound packets and the recipient for outbound ones.
type Packet struct {
	Client ClientID           `msgpack:"client"`
	Op     byte               `msgpack:"op"`
	Body   msgpack.RawMessage `msgpack:"body"`
}

// MatchInit is the first frame a match process reads from stdin.
type MatchInit struct {
	Clients []ClientID `msgpack:"clients"`
}

// NewPacket encodes body and wraps it for client.
func NewPacket(client ClientID, op byte, body any) (Packet, error) {
	raw, err := msgpack.Marshal(body)
	if err != nil {
		return Packet{}, fmt.Errorf("encode %s: %w", OpcodeName(op), err)
	}
	return Packet{Client: client, Op: op, Body: raw}, nil
}

// Marshal serializes a value for a frame payload.
func Marshal(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

// Unmarshal decodes a frame payload.
func Unmarshal(data []byte, v any) error {
	return msgpack.Unmarshal(data, v)
}
