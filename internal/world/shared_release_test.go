//go:build !debug

package world

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/navalrts/server/internal/core/ecs"
)

func TestSharedEntitiesUnknownIsNotFound(t *testing.T) {
	s := NewSharedEntities()
	local := ecs.NewEntityID(3, 0)

	_, ok := s.RemoveByLocal(local)
	assert.False(t, ok)
	_, ok = s.RemoveByShared(99)
	assert.False(t, ok)

	id := s.Insert(local)
	assert.Equal(t, id, s.Insert(local), "double insert keeps the first id")
	assert.Equal(t, 1, s.Len())
}
