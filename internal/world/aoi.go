package world

import (
	"math"
	"slices"

	"github.com/navalrts/server/internal/core/ecs"
	"github.com/navalrts/server/internal/geom"
)

// SpatialGrid buckets ships into square cells so collision checks only visit
// hulls near a projectile. Accessed only from the game loop goroutine.

const cellSize = 1000.0

type cellKey struct {
	cx int32
	cy int32
}

func toCellCoord(v float64) int32 {
	return int32(math.Floor(v / cellSize))
}

// SpatialGrid tracks which entities are in which cells.
type SpatialGrid struct {
	cells map[cellKey]map[ecs.EntityID]struct{}
	where map[ecs.EntityID]cellKey
}

func NewSpatialGrid() *SpatialGrid {
	return &SpatialGrid{
		cells: make(map[cellKey]map[ecs.EntityID]struct{}),
		where: make(map[ecs.EntityID]cellKey),
	}
}

func (g *SpatialGrid) key(p geom.Vec2) cellKey {
	return cellKey{cx: toCellCoord(p.X), cy: toCellCoord(p.Y)}
}

// Add places an entity into the grid.
func (g *SpatialGrid) Add(id ecs.EntityID, p geom.Vec2) {
	k := g.key(p)
	cell := g.cells[k]
	if cell == nil {
		cell = make(map[ecs.EntityID]struct{})
		g.cells[k] = cell
	}
	cell[id] = struct{}{}
	g.where[id] = k
}

// Remove takes an entity out of the grid.
func (g *SpatialGrid) Remove(id ecs.EntityID) {
	k, ok := g.where[id]
	if !ok {
		return
	}
	delete(g.where, id)
	cell := g.cells[k]
	delete(cell, id)
	if len(cell) == 0 {
		delete(g.cells, k)
	}
}

// Move updates an entity's cell when its position changes.
func (g *SpatialGrid) Move(id ecs.EntityID, p geom.Vec2) {
	if k, ok := g.where[id]; ok && k == g.key(p) {
		return
	}
	g.Remove(id)
	g.Add(id, p)
}

// Len returns the number of tracked entities.
func (g *SpatialGrid) Len() int { return len(g.where) }

// Nearby returns the entities in every cell touched by the box of the given
// radius around p, in ascending id order. Caller does fine-grained filtering.
func (g *SpatialGrid) Nearby(p geom.Vec2, radius float64) []ecs.EntityID {
	x0, x1 := toCellCoord(p.X-radius), toCellCoord(p.X+radius)
	y0, y1 := toCellCoord(p.Y-radius), toCellCoord(p.Y+radius)
	var result []ecs.EntityID
	for cx := x0; cx <= x1; cx++ {
		for cy := y0; cy <= y1; cy++ {
			for id := range g.cells[cellKey{cx: cx, cy: cy}] {
				result = append(result, id)
			}
		}
	}
	slices.Sort(result)
	return result
}
