package world

import (
	"github.com/navalrts/server/internal/core/ecs"
	"github.com/navalrts/server/internal/net/packet"
)

// SharedEntities maps simulation entities to the ids clients see. Shared ids
// come from their own generational pool, so a retired id never resolves to
// a later entity that reuses the slot.
type SharedEntities struct {
	ids      *ecs.EntityPool
	byLocal  map[ecs.EntityID]packet.SharedID
	byShared map[packet.SharedID]ecs.EntityID
}

func NewSharedEntities() *SharedEntities {
	return &SharedEntities{
		ids:      ecs.NewEntityPool(),
		byLocal:  make(map[ecs.EntityID]packet.SharedID),
		byShared: make(map[packet.SharedID]ecs.EntityID),
	}
}

// Insert assigns a fresh shared id to local. Inserting an entity twice is a
// programming error; the existing id is returned.
func (s *SharedEntities) Insert(local ecs.EntityID) packet.SharedID {
	if id, ok := s.byLocal[local]; ok {
		invariant(false, "entity %d already has shared id %d", local, id)
		return id
	}
	id := packet.SharedID(s.ids.Create())
	s.byLocal[local] = id
	s.byShared[id] = local
	return id
}

// RemoveByLocal retires the shared id of local.
func (s *SharedEntities) RemoveByLocal(local ecs.EntityID) (packet.SharedID, bool) {
	id, ok := s.byLocal[local]
	if !ok {
		invariant(false, "remove of unmapped entity %d", local)
		return 0, false
	}
	s.retire(local, id)
	return id, true
}

// RemoveByShared retires id and returns the entity it named.
func (s *SharedEntities) RemoveByShared(id packet.SharedID) (ecs.EntityID, bool) {
	local, ok := s.byShared[id]
	if !ok {
		invariant(false, "remove of unknown shared id %d", id)
		return 0, false
	}
	s.retire(local, id)
	return local, true
}

func (s *SharedEntities) retire(local ecs.EntityID, id packet.SharedID) {
	delete(s.byLocal, local)
	delete(s.byShared, id)
	s.ids.Destroy(ecs.EntityID(id))
}

func (s *SharedEntities) GetByLocal(local ecs.EntityID) (packet.SharedID, bool) {
	id, ok := s.byLocal[local]
	return id, ok
}

func (s *SharedEntities) GetByShared(id packet.SharedID) (ecs.EntityID, bool) {
	local, ok := s.byShared[id]
	return local, ok
}

// Len returns the number of live mappings.
func (s *SharedEntities) Len() int { return len(s.byLocal) }
