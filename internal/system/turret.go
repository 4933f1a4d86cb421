package system

import (
	"math"
	"slices"
	"time"

	"github.com/navalrts/server/internal/ballistics"
	"github.com/navalrts/server/internal/component"
	"github.com/navalrts/server/internal/core/ecs"
	coresys "github.com/navalrts/server/internal/core/system"
	"github.com/navalrts/server/internal/core/timer"
	"github.com/navalrts/server/internal/data"
	"github.com/navalrts/server/internal/geom"
	"github.com/navalrts/server/internal/world"
)

// arcNudge is how far the current bearing is pushed before testing whether a
// sweep crosses the forbidden arc. Without it a turret resting on an arc
// edge oscillates.
const arcNudge = 0.001

// TurretSystem reloads turrets, picks their targets, traverses them and
// fires when aimed. Phase 4, after detection.
type TurretSystem struct {
	world *world.State
}

func NewTurretSystem(ws *world.State) *TurretSystem {
	return &TurretSystem{world: ws}
}

func (s *TurretSystem) Phase() coresys.Phase { return coresys.PhaseWeapons }

type candidate struct {
	id  ecs.EntityID
	sol ballistics.BulletSolution
}

func (s *TurretSystem) Update(dt time.Duration) {
	st := s.world
	ships := st.Ships.SortedIDs()
	for _, id := range ships {
		ship, _ := st.Ships.Get(id)
		tr, ok := st.Transforms.Get(id)
		if !ok {
			continue
		}
		for i := range ship.Turrets {
			ts := &ship.Turrets[i]
			ts.Reload.Tick(dt)
			ts.Pos = world.TurretWorldPos(tr, &ship.Template.Turrets[i])
		}
	}

	for _, id := range ships {
		ship, _ := st.Ships.Get(id)
		tr, ok := st.Transforms.Get(id)
		if !ok {
			continue
		}
		enemies := s.enemiesByDistance(id, tr, ships)
		for i := range ship.Turrets {
			s.aim(id, tr, ship, i, enemies, dt)
			s.fire(id, ship, i)
		}
	}
}

// enemiesByDistance lists opposing ships, nearest first.
func (s *TurretSystem) enemiesByDistance(id ecs.EntityID, tr *component.Transform, ships []ecs.EntityID) []ecs.EntityID {
	st := s.world
	var out []ecs.EntityID
	for _, other := range ships {
		if st.Enemies(id, other) {
			out = append(out, other)
		}
	}
	dist := func(e ecs.EntityID) float64 {
		otr, _ := st.Transforms.Get(e)
		return otr.Pos.Sub(tr.Pos).LengthSquared()
	}
	slices.SortStableFunc(out, func(a, b ecs.EntityID) int {
		da, db := dist(a), dist(b)
		switch {
		case da < db:
			return -1
		case da > db:
			return 1
		}
		return 0
	})
	return out
}

// solve returns a firing solution against target if it is detected and
// within the turret's range.
func (s *TurretSystem) solve(from geom.Vec2, tt *data.TurretTemplate, target ecs.EntityID) (ballistics.BulletSolution, bool) {
	st := s.world
	if det, ok := st.Detections.Get(target); !ok || !det.Detected {
		return ballistics.BulletSolution{}, false
	}
	ttr, ok := st.Transforms.Get(target)
	if !ok {
		return ballistics.BulletSolution{}, false
	}
	var vel geom.Vec2
	if v, ok := st.Velocities.Get(target); ok {
		vel = v.V.XY()
	}
	sol, ok := ballistics.SolveBullet(from, ttr.Pos.XY(), vel, tt.MuzzleVel, st.Rules.Gravity)
	if !ok || sol.Distance >= tt.MaxRange {
		return ballistics.BulletSolution{}, false
	}
	return sol, true
}

func (s *TurretSystem) selectTarget(id ecs.EntityID, tr *component.Transform, ti *data.TurretInstance, ts *component.TurretState, enemies []ecs.EntityID) (candidate, bool) {
	st := s.world
	tt := ti.Template

	var primary *candidate
	if ft, ok := st.FireTargets.Get(id); ok && st.Ships.Has(ft.Ship) && st.Enemies(id, ft.Ship) {
		if sol, ok := s.solve(ts.Pos, tt, ft.Ship); ok {
			primary = &candidate{id: ft.Ship, sol: sol}
		}
	}

	if tt.Targeting == data.Primary {
		if primary == nil {
			return candidate{}, false
		}
		return *primary, true
	}

	inArc := func(sol ballistics.BulletSolution) bool {
		arc := ti.FiringArc()
		return arc == nil || arc.Contains(geom.FromAngle(sol.Azimuth-tr.Heading))
	}
	if primary != nil && inArc(primary.sol) {
		return *primary, true
	}
	for _, e := range enemies {
		if sol, ok := s.solve(ts.Pos, tt, e); ok && inArc(sol) {
			return candidate{id: e, sol: sol}, true
		}
	}
	return candidate{}, false
}

func (s *TurretSystem) aim(id ecs.EntityID, tr *component.Transform, ship *component.Ship, i int, enemies []ecs.EntityID, dt time.Duration) {
	ti := &ship.Template.Turrets[i]
	ts := &ship.Turrets[i]

	c, ok := s.selectTarget(id, tr, ti, ts, enemies)
	if !ok {
		ts.Aim = component.AimStatus{Kind: component.NoValidTarget}
		return
	}

	targ := geom.FromAngle(c.sol.Azimuth - tr.Heading)
	ts.Dir = Traverse(ts.Dir, targ, ti.Movement, ti.Template.TurnRate()*dt.Seconds())

	kind := component.AimingToTarget
	arc := ti.FiringArc()
	if math.Abs(ts.Dir.AngleTo(targ)) <= s.world.Rules.AimTolerance && (arc == nil || arc.Contains(ts.Dir)) {
		kind = component.AimedAtTarget
	}
	ts.Aim = component.AimStatus{Kind: kind, Target: c.id, Solution: c.sol}
}

// Traverse turns the ship-relative bearing cur toward targ by at most step
// radians without sweeping through the part of the circle outside movement.
// A nil movement range means the turret rotates freely.
func Traverse(cur, targ geom.Vec2, movement *geom.AngleRange, step float64) geom.Vec2 {
	var rotate float64
	if movement != nil {
		forbidden := movement.Inverse()
		ccw := cur.RotateAngle(arcNudge)
		cw := cur.RotateAngle(-arcNudge)
		switch {
		case !geom.NewAngleRange(ccw, targ).Overlaps(forbidden):
			rotate = 1
		case !geom.NewAngleRange(targ, cw).Overlaps(forbidden):
			rotate = -1
		default:
			// The target lies outside the movement range: head for the
			// nearer edge.
			if movement.Clamp(targ).DistanceSquared(movement.End()) <= 0.001 {
				rotate = 1
			} else {
				rotate = -1
			}
		}
	} else {
		rotate = geom.Sign(cur.AngleTo(targ))
	}

	var next geom.Vec2
	angle := cur.AngleTo(targ)
	switch {
	case math.IsInf(step, 1):
		next = targ
	case rotate*angle >= 0 && math.Abs(angle) <= step:
		next = targ
	default:
		next = cur.RotateAngle(rotate * step)
	}
	if movement != nil {
		next = movement.Clamp(next)
	}
	return next
}

func (s *TurretSystem) fire(id ecs.EntityID, ship *component.Ship, i int) {
	st := s.world
	ts := &ship.Turrets[i]
	if ts.Aim.Kind != component.AimedAtTarget || !ts.Reload.Finished() {
		return
	}
	team, ok := st.Teams.Get(id)
	if !ok {
		return
	}
	tt := ship.Template.Turrets[i].Template
	sol := ts.Aim.Solution

	n := tt.BarrelCount
	for b := 0; b < n; b++ {
		offset := (float64(b) - float64(n-1)/2) * tt.BarrelSpacing
		start := ts.Pos.Add(geom.FromAngle(sol.Azimuth).Rotate(geom.V2(0, offset)))
		bullet := component.Bullet{
			Owner:       id,
			Target:      ts.Aim.Target,
			Damage:      tt.Damage,
			InitialPos:  geom.V3(start.X, start.Y, 0.01),
			InitialVel:  tt.Dispersion.Apply(st.RNG, sol.Direction).Scale(tt.MuzzleVel),
			InitialAim:  sol.Intersection,
			CurrentAim:  sol.Intersection,
			FlightTotal: world.Seconds(sol.Time),
		}
		owner := team.Client
		st.ECS.Defer(func() { st.SpawnBullet(bullet, owner) })
	}
	ts.Reload.Reset()

	if det, ok := st.Detections.Get(id); ok {
		if det.Boost.Remaining() < st.Rules.FiringBoost {
			det.Boost = timer.New(st.Rules.FiringBoost, timer.Once)
		}
		det.BoostRange = math.Max(det.BoostRange, tt.MaxRange)
	}
}
