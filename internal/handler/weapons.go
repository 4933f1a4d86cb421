package handler

import (
	"go.uber.org/zap"

	"github.com/navalrts/server/internal/component"
	"github.com/navalrts/server/internal/core/ecs"
	"github.com/navalrts/server/internal/core/timer"
	"github.com/navalrts/server/internal/geom"
	"github.com/navalrts/server/internal/net/packet"
	"github.com/navalrts/server/internal/world"
)

// HandleLaunchTorpedoes queues a torpedo volley from the ship along dir.
func HandleLaunchTorpedoes(c *world.Client, r *packet.Reader, deps *Deps) {
	var msg packet.LaunchTorpedoes
	if err := r.Decode(&msg); err != nil {
		deps.Log.Warn("bad torpedo launch", zap.Uint32("client", uint32(c.ID)), zap.Error(err))
		return
	}
	ship, ok := ownedShip(c, msg.Ship, "torpedoes", deps)
	if !ok {
		return
	}
	dir, ok := msg.Dir.TryNormalize()
	if !ok {
		deps.Log.Warn("degenerate torpedo direction", zap.Uint32("client", uint32(c.ID)))
		return
	}
	st := deps.World
	st.ECS.Defer(func() { LaunchVolley(st, ship, dir) })
}

// LaunchVolley fires one reloaded volley from ship along the unit vector dir.
// It returns the number of torpedoes spawned: zero when the ship carries no
// torpedoes, nothing is reloaded, or dir is outside both launch arcs.
func LaunchVolley(st *world.State, ship ecs.EntityID, dir geom.Vec2) int {
	s, ok := st.Ships.Get(ship)
	if !ok {
		return 0
	}
	tr, _ := st.Transforms.Get(ship)
	team, _ := st.Teams.Get(ship)
	spec := s.Template.Torpedoes
	if spec == nil || tr == nil || team == nil {
		return 0
	}

	var slot *timer.Timer
	for i := range s.TorpedoReloads {
		if s.TorpedoReloads[i].Finished() {
			slot = &s.TorpedoReloads[i]
			break
		}
	}
	if slot == nil {
		return 0
	}
	if !spec.PortArc.Rotated(tr.Heading).Contains(dir) && !spec.StarboardArc().Rotated(tr.Heading).Contains(dir) {
		return 0
	}
	slot.Reset()

	origin := tr.Pos.XY()
	n := spec.PerVolley
	for i := 0; i < n; i++ {
		var offset float64
		if n > 1 {
			offset = (float64(i) - 0.5*float64(n-1)) * spec.Spread / float64(n-1)
		}
		d := dir.RotateAngle(offset)
		pos := origin.Add(d.Scale(st.Rules.TorpedoSpawnOffset))
		st.SpawnTorpedo(component.Torpedo{
			Owner:    ship,
			Damage:   spec.Damage,
			Origin:   pos,
			MaxRange: spec.Range,
		}, team.Client, pos, d.Scale(spec.Speed))
	}
	return n
}

// HandleUseSmoke starts deploying smoke from the ship.
func HandleUseSmoke(c *world.Client, r *packet.Reader, deps *Deps) {
	var msg packet.UseSmoke
	if err := r.Decode(&msg); err != nil {
		deps.Log.Warn("bad smoke request", zap.Uint32("client", uint32(c.ID)), zap.Error(err))
		return
	}
	ship, ok := ownedShip(c, msg.Ship, "smoke", deps)
	if !ok {
		return
	}
	if !UseSmoke(deps.World, ship) {
		deps.Log.Debug("smoke not available", zap.Uint32("client", uint32(c.ID)), zap.Uint64("ship", uint64(msg.Ship)))
	}
}

// UseSmoke consumes a charge and starts deploying when the ship has smoke,
// is not already deploying, has charges left and its cooldown has elapsed.
func UseSmoke(st *world.State, ship ecs.EntityID) bool {
	if st.Deploying.Has(ship) {
		return false
	}
	sm, ok := st.Smoke.Get(ship)
	if !ok {
		return false
	}
	if !sm.Unlimited() && sm.Charges == 0 {
		return false
	}
	if !sm.Cooldown.Finished() {
		return false
	}
	if !sm.Unlimited() {
		sm.Charges--
	}
	sm.Cooldown.Reset()
	st.Deploying.Set(ship, &component.SmokeDeploying{
		Action: timer.New(world.Seconds(sm.Spec.ActionSecs), timer.Once),
		Puff:   timer.New(st.Rules.SmokePuffInterval, timer.Repeating),
	})
	return true
}
