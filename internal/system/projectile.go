package system

import (
	"time"

	coresys "github.com/navalrts/server/internal/core/system"
	"github.com/navalrts/server/internal/geom"
	"github.com/navalrts/server/internal/world"
)

// ProjectileSystem moves shells along their closed-form trajectories and
// removes spent shells and torpedoes. Phase 1, after kinematics.
type ProjectileSystem struct {
	world *world.State
}

func NewProjectileSystem(ws *world.State) *ProjectileSystem {
	return &ProjectileSystem{world: ws}
}

func (s *ProjectileSystem) Phase() coresys.Phase { return coresys.PhaseMovement }

func (s *ProjectileSystem) Update(dt time.Duration) {
	st := s.world
	g := st.Rules.Gravity

	for _, id := range st.Bullets.SortedIDs() {
		b, _ := st.Bullets.Get(id)
		tr, ok := st.Transforms.Get(id)
		if !ok {
			continue
		}
		vel, _ := st.Velocities.Get(id)

		// Track the target so the shell lands where it is going to be.
		if ttr, ok := st.Transforms.Get(b.Target); ok {
			rem := max(b.FlightTotal-b.FlightTime, 0).Seconds()
			aim := ttr.Pos.XY()
			if tv, ok := st.Velocities.Get(b.Target); ok {
				aim = aim.Add(tv.V.XY().Scale(rem))
			}
			b.CurrentAim = aim
		}

		b.FlightTime += dt
		pos := BulletPosition(b.InitialPos, b.InitialVel, b.CurrentAim.Sub(b.InitialAim), g, b.FlightTime)
		b.PrevPos = tr.Pos
		if d, ok := pos.XY().Sub(tr.Pos.XY()).TryNormalize(); ok {
			tr.Heading = d.Angle()
		}
		tr.Pos = pos
		if vel != nil {
			t := b.FlightTime.Seconds()
			vel.V = b.InitialVel.Add(geom.V3(0, 0, -g*t))
		}

		if pos.Z <= st.Rules.BulletMinAltitude {
			st.QueueDespawn(id)
		}
	}

	for _, id := range st.Torpedoes.SortedIDs() {
		t, _ := st.Torpedoes.Get(id)
		tr, ok := st.Transforms.Get(id)
		if !ok {
			continue
		}
		if tr.Pos.XY().Distance(t.Origin) > t.MaxRange {
			st.QueueDespawn(id)
		}
	}
}

// BulletPosition evaluates a shell's parabola at flight time t, shifted
// horizontally by the aimpoint correction adj.
func BulletPosition(p0, v0 geom.Vec3, adj geom.Vec2, gravity float64, t time.Duration) geom.Vec3 {
	secs := t.Seconds()
	return p0.
		Add(v0.Scale(secs)).
		Add(geom.V3(adj.X, adj.Y, -0.5*gravity*secs*secs))
}
