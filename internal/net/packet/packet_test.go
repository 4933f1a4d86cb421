package packet

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/navalrts/server/internal/geom"
)

func TestPacketBodyDecodes(t *testing.T) {
	target := SharedID(9)
	p, err := NewPacket(3, C_OPCODE_SET_FIRE_TARGET, SetFireTarget{ID: 4, Target: &target})
	require.NoError(t, err)

	raw, err := Marshal(p)
	require.NoError(t, err)
	var back Packet
	require.NoError(t, Unmarshal(raw, &back))

	r := NewReader(back)
	assert.Equal(t, ClientID(3), r.Client())
	assert.Equal(t, C_OPCODE_SET_FIRE_TARGET, r.Opcode())
	var msg SetFireTarget
	require.NoError(t, r.Decode(&msg))
	assert.Equal(t, SharedID(4), msg.ID)
	require.NotNil(t, msg.Target)
	assert.Equal(t, SharedID(9), *msg.Target)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	r := NewReader(Packet{Op: C_OPCODE_SET_MOVE_ORDER, Body: []byte{0xc1}})
	var msg SetMoveOrder
	assert.Error(t, r.Decode(&msg))

	r = NewReader(Packet{Op: C_OPCODE_SET_MOVE_ORDER})
	assert.Error(t, r.Decode(&msg))
}

func TestRegistryDispatch(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	var got []geom.Vec2
	reg.Register(C_OPCODE_SET_MOVE_ORDER, []ClientState{StateInMatch}, func(_ any, r *Reader) {
		var msg SetMoveOrder
		if r.Decode(&msg) == nil {
			got = msg.Waypoints
		}
	})
	reg.Register(C_OPCODE_ECHO, []ClientState{StateInMatch}, func(any, *Reader) {
		panic("boom")
	})

	p, err := NewPacket(1, C_OPCODE_SET_MOVE_ORDER, SetMoveOrder{ID: 1, Waypoints: []geom.Vec2{{X: 1, Y: 2}}})
	require.NoError(t, err)

	err = reg.Dispatch(nil, StateHandshake, p)
	assert.True(t, errors.Is(err, ErrStateNotAllowed))
	assert.Nil(t, got)

	require.NoError(t, reg.Dispatch(nil, StateInMatch, p))
	assert.Equal(t, []geom.Vec2{{X: 1, Y: 2}}, got)

	err = reg.Dispatch(nil, StateInMatch, Packet{Op: 250})
	assert.True(t, errors.Is(err, ErrUnknownOpcode))

	echo, err := NewPacket(1, C_OPCODE_ECHO, Echo{Text: "hi"})
	require.NoError(t, err)
	err = reg.Dispatch(nil, StateInMatch, echo)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic")
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Yamamoto", "Yamamoto"},
		{"trimmed", "  Nelson \t", "Nelson"},
		{"control chars", "Tō\x00gō\x07", "Tōgō"},
		{"fullwidth folded", "ＡＢＣ", "ABC"},
		{"decomposed composed", "Cafe\u0301", "Caf\u00e9"},
		{"empty falls back", "   ", "Captain 7"},
		{"truncated", strings.Repeat("x", 40), strings.Repeat("x", MaxNameRunes)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeName(tt.in, 7))
		})
	}
}
