package handler

import (
	"go.uber.org/zap"

	"github.com/navalrts/server/internal/component"
	"github.com/navalrts/server/internal/core/ecs"
	"github.com/navalrts/server/internal/geom"
	"github.com/navalrts/server/internal/net/packet"
	"github.com/navalrts/server/internal/world"
)

// ownedShip resolves a shared id to a live ship owned by c. Failures are
// logged and the command must be dropped.
func ownedShip(c *world.Client, id packet.SharedID, action string, deps *Deps) (ecs.EntityID, bool) {
	st := deps.World
	local, ok := st.Shared.GetByShared(id)
	if !ok {
		deps.Log.Warn("bad entity id",
			zap.String("action", action),
			zap.Uint32("client", uint32(c.ID)),
			zap.Uint64("id", uint64(id)),
		)
		return 0, false
	}
	team, ok := st.Teams.Get(local)
	if !ok || team.Client != c.ID {
		deps.Log.Warn("entity not owned by client",
			zap.String("action", action),
			zap.Uint32("client", uint32(c.ID)),
			zap.Uint64("id", uint64(id)),
		)
		return 0, false
	}
	if !st.Ships.Has(local) {
		deps.Log.Warn("entity is not a ship",
			zap.String("action", action),
			zap.Uint32("client", uint32(c.ID)),
			zap.Uint64("id", uint64(id)),
		)
		return 0, false
	}
	return local, true
}

// HandleSetMoveOrder replaces a ship's waypoint queue. An empty list stops
// the ship. The accepted order is echoed to the owner.
func HandleSetMoveOrder(c *world.Client, r *packet.Reader, deps *Deps) {
	var msg packet.SetMoveOrder
	if err := r.Decode(&msg); err != nil {
		deps.Log.Warn("bad move order", zap.Uint32("client", uint32(c.ID)), zap.Error(err))
		return
	}
	ship, ok := ownedShip(c, msg.ID, "move", deps)
	if !ok {
		return
	}
	half := deps.World.Rules.MapHalfSize
	lo, hi := geom.V2(-half, -half), geom.V2(half, half)
	waypoints := make([]geom.Vec2, 0, len(msg.Waypoints))
	for _, wp := range msg.Waypoints {
		if !wp.IsFinite() {
			deps.Log.Warn("non-finite waypoint", zap.Uint32("client", uint32(c.ID)))
			return
		}
		waypoints = append(waypoints, wp.ClampBox(lo, hi))
	}

	deps.World.MoveOrders.Set(ship, &component.MoveOrder{Waypoints: waypoints})
	deps.World.Outbox.Send(c.ID, packet.S_OPCODE_SET_MOVE_ORDER, packet.SetMoveOrder{
		ID:        msg.ID,
		Waypoints: waypoints,
	})
}

// HandleSetFireTarget points a ship's guns at an enemy ship, or clears the
// target when none is given.
func HandleSetFireTarget(c *world.Client, r *packet.Reader, deps *Deps) {
	var msg packet.SetFireTarget
	if err := r.Decode(&msg); err != nil {
		deps.Log.Warn("bad fire target", zap.Uint32("client", uint32(c.ID)), zap.Error(err))
		return
	}
	ship, ok := ownedShip(c, msg.ID, "fire_target", deps)
	if !ok {
		return
	}
	st := deps.World
	if msg.Target == nil {
		st.FireTargets.Remove(ship)
		return
	}
	target, ok := st.Shared.GetByShared(*msg.Target)
	if !ok || !st.Ships.Has(target) || !st.Enemies(ship, target) {
		deps.Log.Warn("bad fire target",
			zap.Uint32("client", uint32(c.ID)),
			zap.Uint64("target", uint64(*msg.Target)),
		)
		return
	}
	st.FireTargets.Set(ship, &component.FireTarget{Ship: target})
}
