package packet

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Reader gives handlers access to one inbound packet.
type Reader struct {
	pkt Packet
}

func NewReader(p Packet) *Reader {
	return &Reader{pkt: p}
}

func (r *Reader) Client() ClientID { return r.pkt.Client }
func (r *Reader) Opcode() byte     { return r.pkt.Op }

// Decode unpacks the body into v.
func (r *Reader) Decode(v any) error {
	if len(r.pkt.Body) == 0 {
		return fmt.Errorf("%s: empty body", OpcodeName(r.pkt.Op))
	}
	if err := msgpack.Unmarshal(r.pkt.Body, v); err != nil {
		return fmt.Errorf("%s: %w", OpcodeName(r.pkt.Op), err)
	}
	return nil
}
