package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/navalrts/server/internal/component"
	"github.com/navalrts/server/internal/core/timer"
	"github.com/navalrts/server/internal/geom"
	"github.com/navalrts/server/internal/net/packet"
)

func TestDetectionNotifiesOnTransitionOnly(t *testing.T) {
	st := newTestWorld(t)
	a := spawn(t, st, "cutter", 1, 0, 0, 0)
	b := spawn(t, st, "cutter", 2, 8000, 0, 0)
	st.Outbox.Drain()
	sys := NewDetectionSystem(st, zap.NewNop())

	for i := 0; i < 5; i++ {
		sys.Update(time.Second / 30)
	}
	_, msgs := sent[packet.SetDetection](t, st.Outbox.Drain(), packet.S_OPCODE_SET_DETECTION)
	assert.Empty(t, msgs)

	moveTo(st, b, 3000, 0)
	for i := 0; i < 5; i++ {
		sys.Update(time.Second / 30)
	}
	to, msgs := sent[packet.SetDetection](t, st.Outbox.Drain(), packet.S_OPCODE_SET_DETECTION)
	shared := sharedID(t, st, a)
	var forA []packet.ClientID
	for i, m := range msgs {
		if m.ID == shared {
			assert.True(t, m.Detected)
			forA = append(forA, to[i])
		}
	}
	assert.ElementsMatch(t, []packet.ClientID{1, 2}, forA, "one notification per client")

	det, _ := st.Detections.Get(a)
	assert.True(t, det.Detected)
}

func TestSmokeBlocksDetection(t *testing.T) {
	st := newTestWorld(t)
	a := spawn(t, st, "cutter", 1, 0, 0, 0)
	spawn(t, st, "cutter", 2, 4000, 0, 0)
	puff := st.SpawnSmokePuff(geom.V2(2000, 0), 300, time.Minute)
	sys := NewDetectionSystem(st, zap.NewNop())

	sys.Update(time.Second)
	det, _ := st.Detections.Get(a)
	assert.False(t, det.Detected)

	// Firing from inside smoke reveals the ship out to its through-smoke range.
	det.Boost = timer.New(20*time.Second, timer.Once)
	det.BoostRange = 9000
	sys.Update(time.Second)
	assert.True(t, det.Detected)

	det.Boost = timer.NewFinished(0)
	sys.Update(time.Second)
	assert.False(t, det.Detected)

	st.Despawn(puff)
	sys.Update(time.Second)
	assert.True(t, det.Detected)
}

func TestBoostDecayRestoresBaseRange(t *testing.T) {
	st := newTestWorld(t)
	a := spawn(t, st, "cutter", 1, 0, 0, 0)
	spawn(t, st, "cutter", 2, 8000, 0, 0)
	sys := NewDetectionSystem(st, zap.NewNop())

	det, _ := st.Detections.Get(a)
	det.Boost = timer.New(20*time.Second, timer.Once)
	det.BoostRange = 9000

	sys.Update(time.Second)
	require.True(t, det.Detected)

	for i := 0; i < 25; i++ {
		sys.Update(time.Second)
	}
	assert.False(t, det.Detected)
	assert.True(t, det.Boost.Finished())
	assert.Zero(t, det.BoostRange)

	base, _ := st.BaseDetections.Get(a)
	got := EffectiveDetectionRange(base, det.BoostRange, !det.Boost.Finished(), false, st.Rules.MinDetection)
	assert.Equal(t, base.Range, got)
}

func TestEffectiveDetectionRange(t *testing.T) {
	base := &component.BaseDetection{Range: 6000, ThroughSmoke: 3000}
	tests := []struct {
		name    string
		boosted bool
		blocked bool
		boost   float64
		want    float64
	}{
		{"plain", false, false, 0, 6000},
		{"boosted", true, false, 12000, 12000},
		{"boost below base", true, false, 4000, 6000},
		{"firing through smoke", true, true, 12000, 3000},
		{"hidden in smoke", false, true, 0, 2000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EffectiveDetectionRange(base, tt.boost, tt.boosted, tt.blocked, 2000))
		})
	}
}
