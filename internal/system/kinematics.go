package system

import (
	"math"
	"time"

	"github.com/navalrts/server/internal/component"
	"github.com/navalrts/server/internal/core/ecs"
	coresys "github.com/navalrts/server/internal/core/system"
	"github.com/navalrts/server/internal/geom"
	"github.com/navalrts/server/internal/net/packet"
	"github.com/navalrts/server/internal/world"
)

// KinematicsSystem steers ships along their move orders, integrates every
// velocity into its transform and keeps ships inside the map. Phase 1.
type KinematicsSystem struct {
	world *world.State
}

func NewKinematicsSystem(ws *world.State) *KinematicsSystem {
	return &KinematicsSystem{world: ws}
}

func (s *KinematicsSystem) Phase() coresys.Phase { return coresys.PhaseMovement }

func (s *KinematicsSystem) Update(dt time.Duration) {
	st := s.world
	secs := dt.Seconds()
	for _, id := range st.Ships.SortedIDs() {
		s.steer(id, secs)
	}

	// Bullets follow a closed-form path and are positioned by the
	// projectile system.
	ecs.Each2(st.Transforms, st.Velocities, func(id ecs.EntityID, tr *component.Transform, v *component.Velocity) {
		if st.Bullets.Has(id) {
			return
		}
		if t, ok := st.Torpedoes.Get(id); ok {
			t.PrevPos = tr.Pos
		}
		tr.Pos = tr.Pos.Add(v.V.Scale(secs))
	})

	half := st.Rules.MapHalfSize
	lo, hi := geom.V2(-half, -half), geom.V2(half, half)
	for _, id := range st.Ships.SortedIDs() {
		tr, _ := st.Transforms.Get(id)
		p := tr.Pos.XY().ClampBox(lo, hi)
		tr.Pos = geom.V3(p.X, p.Y, tr.Pos.Z)
		st.Grid.Move(id, p)
	}
}

func (s *KinematicsSystem) steer(id ecs.EntityID, secs float64) {
	st := s.world
	ship, _ := st.Ships.Get(id)
	tr, ok := st.Transforms.Get(id)
	if !ok {
		return
	}
	vel, ok := st.Velocities.Get(id)
	if !ok {
		return
	}
	tmpl := ship.Template
	pos := tr.Pos.XY()

	order, hasOrder := st.MoveOrders.Get(id)
	if hasOrder && len(order.Waypoints) > 0 && order.Waypoints[0].Distance(pos) <= st.Rules.WaypointEpsilon {
		order.Waypoints = order.Waypoints[1:]
		s.sendMoveOrder(id, order)
	}

	targetSpeed, targetDir := 0.0, tr.Heading
	if hasOrder && len(order.Waypoints) > 0 {
		next := order.Waypoints[0]
		if to, ok := next.Sub(pos).TryNormalize(); ok {
			targetSpeed = geom.Clamp(tmpl.MaxSpeed, 0, next.Distance(pos))
			targetDir = to.Angle()
		}
	}

	limiter := geom.Clamp(ship.Speed/st.Rules.ReferenceTurnSpeed, 0, 1)
	dir := geom.FromAngle(tr.Heading).RotateTowards(geom.FromAngle(targetDir), limiter*tmpl.TurningRate*secs)

	delta := targetSpeed - ship.Speed
	step := math.Abs(delta)
	ship.Speed += geom.Clamp(geom.Sign(delta)*tmpl.Acceleration*secs, -step, step)
	ship.Speed = geom.Clamp(ship.Speed, 0, tmpl.MaxSpeed)

	tr.Heading = dir.Angle()
	v := dir.Scale(ship.Speed)
	vel.V = geom.V3(v.X, v.Y, 0)
}

func (s *KinematicsSystem) sendMoveOrder(id ecs.EntityID, order *component.MoveOrder) {
	st := s.world
	shared, ok := st.Shared.GetByLocal(id)
	if !ok {
		return
	}
	team, ok := st.Teams.Get(id)
	if !ok {
		return
	}
	remaining := make([]geom.Vec2, len(order.Waypoints))
	copy(remaining, order.Waypoints)
	st.Outbox.Send(team.Client, packet.S_OPCODE_SET_MOVE_ORDER, packet.SetMoveOrder{ID: shared, Waypoints: remaining})
}
