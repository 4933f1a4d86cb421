package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pos struct{ X, Y float64 }
type vel struct{ X, Y float64 }

func TestEntityPoolReuse(t *testing.T) {
	p := NewEntityPool()
	a := p.Create()
	require.False(t, a.IsZero())
	assert.Equal(t, uint32(1), a.Index())
	assert.True(t, p.Alive(a))
	assert.False(t, p.Alive(0))

	p.Destroy(a)
	assert.False(t, p.Alive(a))
	assert.Equal(t, 0, p.Live())

	b := p.Create()
	assert.Equal(t, a.Index(), b.Index())
	assert.NotEqual(t, a, b)
	assert.True(t, p.Alive(b))
	assert.False(t, p.Alive(a))

	p.Destroy(a)
	assert.True(t, p.Alive(b), "stale destroy must not free the new occupant")
	assert.Equal(t, 1, p.Live())
}

func TestWorldDeferredDestroy(t *testing.T) {
	w := NewWorld()
	positions := NewPtrComponentStore[pos]()
	velocities := NewPtrComponentStore[vel]()
	w.Registry().Register(positions)
	w.Registry().Register(velocities)

	a := w.CreateEntity()
	b := w.CreateEntity()
	positions.Set(a, &pos{1, 2})
	positions.Set(b, &pos{3, 4})
	velocities.Set(b, &vel{1, 0})

	w.Defer(func() { w.DestroyEntity(b) })
	assert.True(t, w.Alive(b))
	assert.Equal(t, 1, w.Pending())

	w.FlushCommands()
	assert.False(t, w.Alive(b))
	assert.False(t, positions.Has(b))
	assert.False(t, velocities.Has(b))
	assert.True(t, positions.Has(a))
	assert.Equal(t, 0, w.Pending())
}

func TestFlushRunsNestedCommands(t *testing.T) {
	w := NewWorld()
	var order []int
	w.Defer(func() {
		order = append(order, 1)
		w.Defer(func() { order = append(order, 3) })
	})
	w.Defer(func() { order = append(order, 2) })
	w.FlushCommands()
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestEach2AndSortedIDs(t *testing.T) {
	positions := NewPtrComponentStore[pos]()
	velocities := NewPtrComponentStore[vel]()
	p := NewEntityPool()
	var ids []EntityID
	for i := 0; i < 5; i++ {
		id := p.Create()
		ids = append(ids, id)
		positions.Set(id, &pos{})
		if i%2 == 0 {
			velocities.Set(id, &vel{X: 1})
		}
	}

	seen := 0
	Each2(positions, velocities, func(_ EntityID, p *pos, v *vel) {
		p.X += v.X
		seen++
	})
	assert.Equal(t, 3, seen)
	assert.Equal(t, ids, positions.SortedIDs())
}
