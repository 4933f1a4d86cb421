package world

import (
	"time"

	"go.uber.org/zap"

	"github.com/navalrts/server/internal/component"
	"github.com/navalrts/server/internal/core/ecs"
	"github.com/navalrts/server/internal/core/event"
	"github.com/navalrts/server/internal/core/timer"
	"github.com/navalrts/server/internal/data"
	"github.com/navalrts/server/internal/geom"
	"github.com/navalrts/server/internal/net/packet"
)

// Seconds converts a float number of seconds from data files.
func Seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// TurretWorldPos places a turret's hull offset in world space.
func TurretWorldPos(tr *component.Transform, ti *data.TurretInstance) geom.Vec2 {
	return tr.Pos.XY().Add(ti.Offset.RotateAngle(tr.Heading))
}

// Every spawn registers a shared id and notifies all clients before it
// returns; Despawn retires the id and notifies before the entity is freed.
// Systems call these through ECS.Defer.

// SpawnShip creates a ship of tmpl for team at pos facing heading.
func (s *State) SpawnShip(tmpl *data.ShipTemplate, team packet.ClientID, pos geom.Vec2, heading float64) ecs.EntityID {
	id := s.ECS.CreateEntity()
	tr := &component.Transform{Pos: geom.V3(pos.X, pos.Y, 0), Heading: heading}

	ship := &component.Ship{
		Template: tmpl,
		Turrets:  make([]component.TurretState, len(tmpl.Turrets)),
	}
	dirs := make([]float64, len(tmpl.Turrets))
	for i := range tmpl.Turrets {
		ti := &tmpl.Turrets[i]
		ship.Turrets[i] = component.TurretState{
			Dir:    geom.FromAngle(ti.DefaultDir),
			Reload: timer.New(Seconds(ti.Template.ReloadSecs), timer.Once),
			Pos:    TurretWorldPos(tr, ti),
		}
		dirs[i] = ti.DefaultDir
	}
	if t := tmpl.Torpedoes; t != nil {
		ship.TorpedoReloads = make([]timer.Timer, t.Volleys)
		for i := range ship.TorpedoReloads {
			ship.TorpedoReloads[i] = timer.New(Seconds(t.ReloadSecs), timer.Once)
		}
	}

	s.Transforms.Set(id, tr)
	s.Velocities.Set(id, &component.Velocity{})
	s.Healths.Set(id, &component.Health{HP: tmpl.Health})
	s.Teams.Set(id, &component.Team{Client: team})
	s.Ships.Set(id, ship)
	s.Detections.Set(id, &component.DetectionStatus{Boost: timer.NewFinished(0)})
	s.BaseDetections.Set(id, &component.BaseDetection{Range: tmpl.Detection, ThroughSmoke: tmpl.DetectionThroughSmoke})
	s.Detectors.Set(id, &component.Detector{})
	if sm := tmpl.Smoke; sm != nil {
		s.Smoke.Set(id, &component.SmokeState{
			Spec:     sm,
			Cooldown: timer.NewFinished(Seconds(sm.CooldownSecs)),
			Charges:  sm.Charges,
		})
	}
	s.Grid.Add(id, pos)

	shared := s.Shared.Insert(id)
	s.Outbox.Broadcast(packet.S_OPCODE_SPAWN_SHIP, packet.SpawnShip{
		ID:         shared,
		Template:   tmpl.Name,
		Team:       team,
		Pos:        tr.Pos,
		Heading:    heading,
		Health:     tmpl.Health,
		TurretDirs: dirs,
	})
	s.Log.Info("ship spawned",
		zap.String("template", tmpl.Name),
		zap.Uint32("team", uint32(team)),
		zap.Uint64("shared", uint64(shared)),
	)
	return id
}

// SpawnBullet launches a shell owned by team.
func (s *State) SpawnBullet(b component.Bullet, team packet.ClientID) ecs.EntityID {
	id := s.ECS.CreateEntity()
	b.PrevPos = b.InitialPos
	s.Transforms.Set(id, &component.Transform{Pos: b.InitialPos})
	s.Velocities.Set(id, &component.Velocity{V: b.InitialVel})
	s.Teams.Set(id, &component.Team{Client: team})
	s.Bullets.Set(id, &b)

	shared := s.Shared.Insert(id)
	s.Outbox.Broadcast(packet.S_OPCODE_SPAWN_BULLET, packet.SpawnBullet{
		ID:         shared,
		Team:       team,
		Pos:        b.InitialPos,
		Vel:        b.InitialVel,
		Gravity:    s.Rules.Gravity,
		FlightTime: b.FlightTotal.Seconds(),
	})
	return id
}

// SpawnTorpedo launches a torpedo at pos with velocity vel.
func (s *State) SpawnTorpedo(t component.Torpedo, team packet.ClientID, pos, vel geom.Vec2) ecs.EntityID {
	id := s.ECS.CreateEntity()
	p3, v3 := geom.V3(pos.X, pos.Y, 0), geom.V3(vel.X, vel.Y, 0)
	t.PrevPos = p3
	s.Transforms.Set(id, &component.Transform{Pos: p3, Heading: vel.Angle()})
	s.Velocities.Set(id, &component.Velocity{V: v3})
	s.Teams.Set(id, &component.Team{Client: team})
	s.Torpedoes.Set(id, &t)
	s.Detections.Set(id, &component.DetectionStatus{Boost: timer.NewFinished(0)})
	s.BaseDetections.Set(id, &component.BaseDetection{Range: s.Rules.TorpedoDetection, ThroughSmoke: s.Rules.TorpedoDetection})

	shared := s.Shared.Insert(id)
	s.Outbox.Broadcast(packet.S_OPCODE_SPAWN_TORPEDO, packet.SpawnTorpedo{
		ID:   shared,
		Team: team,
		Pos:  p3,
		Vel:  v3,
	})
	return id
}

// SpawnSmokePuff creates a smoke cloud at pos.
func (s *State) SpawnSmokePuff(pos geom.Vec2, radius float64, dissipation time.Duration) ecs.EntityID {
	id := s.ECS.CreateEntity()
	p3 := geom.V3(pos.X, pos.Y, 0)
	s.Transforms.Set(id, &component.Transform{Pos: p3})
	s.Puffs.Set(id, &component.SmokePuff{
		Radius:      radius,
		Dissipation: timer.New(dissipation, timer.Once),
	})

	shared := s.Shared.Insert(id)
	s.Outbox.Broadcast(packet.S_OPCODE_SPAWN_SMOKE_PUFF, packet.SpawnSmokePuff{
		ID:     shared,
		Pos:    p3,
		Radius: radius,
	})
	return id
}

// Despawn retires the entity's shared id, tells every client, and frees the
// entity. Despawning a dead entity is a no-op.
func (s *State) Despawn(id ecs.EntityID) {
	if !s.ECS.Alive(id) {
		return
	}
	shared, ok := s.Shared.RemoveByLocal(id)
	if ok {
		s.Outbox.Broadcast(packet.S_OPCODE_DESTROY_ENTITY, packet.DestroyEntity{ID: shared})
	}
	if ship, isShip := s.Ships.Get(id); isShip {
		var team packet.ClientID
		if t, ok := s.Teams.Get(id); ok {
			team = t.Client
		}
		event.Emit(s.Events, event.ShipSunk{Ship: id, Shared: shared, Team: team, Name: ship.Template.Name})
		s.Log.Info("ship destroyed",
			zap.String("template", ship.Template.Name),
			zap.Uint32("team", uint32(team)),
			zap.Uint64("shared", uint64(shared)),
		)
	}
	s.Grid.Remove(id)
	s.ECS.DestroyEntity(id)
}

// QueueDespawn defers Despawn to the end of the running system.
func (s *State) QueueDespawn(id ecs.EntityID) {
	s.ECS.Defer(func() { s.Despawn(id) })
}
