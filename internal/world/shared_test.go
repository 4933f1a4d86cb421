package world

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navalrts/server/internal/core/ecs"
	"github.com/navalrts/server/internal/net/packet"
)

func TestSharedEntitiesBijection(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 1))
	pool := ecs.NewEntityPool()
	s := NewSharedEntities()

	live := map[ecs.EntityID]packet.SharedID{}
	retired := map[packet.SharedID]bool{}
	var locals []ecs.EntityID

	for step := 0; step < 5000; step++ {
		if len(locals) == 0 || rng.IntN(3) > 0 {
			local := pool.Create()
			id := s.Insert(local)
			require.False(t, retired[id], "shared id %d reused", id)
			for _, other := range live {
				require.NotEqual(t, other, id)
			}
			live[local] = id
			locals = append(locals, local)
		} else {
			i := rng.IntN(len(locals))
			local := locals[i]
			locals = append(locals[:i], locals[i+1:]...)
			want := live[local]
			if rng.IntN(2) == 0 {
				got, ok := s.RemoveByLocal(local)
				require.True(t, ok)
				assert.Equal(t, want, got)
			} else {
				got, ok := s.RemoveByShared(want)
				require.True(t, ok)
				assert.Equal(t, local, got)
			}
			delete(live, local)
			retired[want] = true
			pool.Destroy(local)
		}

		require.Equal(t, len(live), s.Len())
		if step%250 == 0 {
			for local, id := range live {
				got, ok := s.GetByLocal(local)
				require.True(t, ok)
				require.Equal(t, id, got)
				back, ok := s.GetByShared(id)
				require.True(t, ok)
				require.Equal(t, local, back)
			}
			for id := range retired {
				_, ok := s.GetByShared(id)
				require.False(t, ok)
			}
		}
	}
}
