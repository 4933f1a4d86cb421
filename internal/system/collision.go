package system

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/navalrts/server/internal/core/ecs"
	coresys "github.com/navalrts/server/internal/core/system"
	"github.com/navalrts/server/internal/geom"
	"github.com/navalrts/server/internal/scripting"
	"github.com/navalrts/server/internal/world"
)

// hullReach bounds the distance from a ship's origin to any corner of its
// hull, used to widen grid queries.
const hullReach = 200.0

// CollisionSystem tests the path each shell and torpedo travelled this tick
// against enemy hulls, applies damage and removes what was hit. Phase 2.
type CollisionSystem struct {
	world *world.State
	log   *zap.Logger
}

func NewCollisionSystem(ws *world.State, log *zap.Logger) *CollisionSystem {
	return &CollisionSystem{world: ws, log: log}
}

func (s *CollisionSystem) Phase() coresys.Phase { return coresys.PhaseCollision }

func (s *CollisionSystem) Update(_ time.Duration) {
	st := s.world

	for _, id := range st.Bullets.SortedIDs() {
		b, _ := st.Bullets.Get(id)
		tr, ok := st.Transforms.Get(id)
		if !ok {
			continue
		}
		ship, local, ok := s.firstHit(id, b.PrevPos, tr.Pos)
		if !ok {
			continue
		}
		s.applyShellHit(ship, b.Damage, local)
		st.QueueDespawn(id)
	}

	for _, id := range st.Torpedoes.SortedIDs() {
		t, _ := st.Torpedoes.Get(id)
		tr, ok := st.Transforms.Get(id)
		if !ok {
			continue
		}
		ship, _, ok := s.firstHit(id, t.PrevPos, tr.Pos)
		if !ok {
			continue
		}
		s.damage(ship, t.Damage)
		st.QueueDespawn(id)
	}
}

// firstHit returns the enemy ship whose hull the segment from a to b enters
// first, with the segment direction in that ship's frame.
func (s *CollisionSystem) firstHit(projectile ecs.EntityID, a, b geom.Vec3) (ecs.EntityID, geom.Vec3, bool) {
	st := s.world
	var (
		best    ecs.EntityID
		bestT   = math.Inf(1)
		bestDir geom.Vec3
	)
	reach := a.Sub(b).Length() + hullReach
	for _, ship := range st.Grid.Nearby(b.XY(), reach) {
		if !st.Enemies(projectile, ship) {
			continue
		}
		hp, ok := st.Healths.Get(ship)
		if !ok || hp.HP <= 0 {
			continue
		}
		sh, ok := st.Ships.Get(ship)
		if !ok {
			continue
		}
		str, _ := st.Transforms.Get(ship)
		la, lb := toShipFrame(a, str.Pos, str.Heading), toShipFrame(b, str.Pos, str.Heading)
		lo, hi := sh.Template.Hull.Bounds()
		if t, hit := geom.SegmentHitsBox(la, lb, lo, hi); hit && t < bestT {
			best, bestT, bestDir = ship, t, lb.Sub(la)
		}
	}
	return best, bestDir, !math.IsInf(bestT, 1)
}

func toShipFrame(p, origin geom.Vec3, heading float64) geom.Vec3 {
	d := p.Sub(origin)
	xy := d.XY().RotateAngle(-heading)
	return geom.V3(xy.X, xy.Y, d.Z)
}

// applyShellHit scales damage by how square the shell struck the side of
// the hull.
func (s *CollisionSystem) applyShellHit(ship ecs.EntityID, base float64, localDir geom.Vec3) {
	st := s.world
	hp, _ := st.Healths.Get(ship)
	sh, _ := st.Ships.Get(ship)
	var alignment float64
	if d, ok := localDir.XY().TryNormalize(); ok {
		alignment = math.Abs(d.Y)
	}
	dmg := st.Damage.CalcShellDamage(scripting.ShellDamageContext{
		BaseDamage:  base,
		Alignment:   alignment,
		TargetClass: sh.Template.Class,
		TargetHP:    hp.HP,
		TargetMaxHP: sh.Template.Health,
	})
	s.damage(ship, dmg)
}

func (s *CollisionSystem) damage(ship ecs.EntityID, dmg float64) {
	st := s.world
	hp, _ := st.Healths.Get(ship)
	hp.HP = math.Max(0, hp.HP-dmg)
	s.log.Debug("hit", zap.Uint64("ship", uint64(ship)), zap.Float64("damage", dmg), zap.Float64("hp", hp.HP))
	if hp.HP <= 0 {
		st.QueueDespawn(ship)
	}
}
