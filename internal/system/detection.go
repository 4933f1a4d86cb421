package system

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/navalrts/server/internal/component"
	"github.com/navalrts/server/internal/core/ecs"
	coresys "github.com/navalrts/server/internal/core/system"
	"github.com/navalrts/server/internal/core/timer"
	"github.com/navalrts/server/internal/geom"
	"github.com/navalrts/server/internal/net/packet"
	"github.com/navalrts/server/internal/world"
)

// DetectionSystem decides which entities the opposing team can see and
// reports every change to all clients. Phase 3.
type DetectionSystem struct {
	world *world.State
	log   *zap.Logger
}

func NewDetectionSystem(ws *world.State, log *zap.Logger) *DetectionSystem {
	return &DetectionSystem{world: ws, log: log}
}

func (s *DetectionSystem) Phase() coresys.Phase { return coresys.PhaseDetection }

type spotter struct {
	team packet.ClientID
	pos  geom.Vec3
}

type cloud struct {
	pos    geom.Vec2
	radius float64
}

func (s *DetectionSystem) Update(dt time.Duration) {
	st := s.world

	var spotters []spotter
	for _, id := range st.Detectors.SortedIDs() {
		tr, ok := st.Transforms.Get(id)
		if !ok {
			continue
		}
		team, ok := st.Teams.Get(id)
		if !ok {
			continue
		}
		spotters = append(spotters, spotter{team: team.Client, pos: tr.Pos})
	}
	var clouds []cloud
	ecs.Each2(st.Puffs, st.Transforms, func(_ ecs.EntityID, p *component.SmokePuff, tr *component.Transform) {
		clouds = append(clouds, cloud{pos: tr.Pos.XY(), radius: p.Radius})
	})

	for _, id := range st.Detections.SortedIDs() {
		status, _ := st.Detections.Get(id)
		base, ok := st.BaseDetections.Get(id)
		if !ok {
			continue
		}
		tr, ok := st.Transforms.Get(id)
		if !ok {
			continue
		}
		team, ok := st.Teams.Get(id)
		if !ok {
			continue
		}

		status.Boost.Tick(dt)
		boosted := !status.Boost.Finished()
		was := status.Detected

		status.Detected = false
		for _, sp := range spotters {
			if sp.team == team.Client {
				continue
			}
			blocked := smokeBlocks(clouds, sp.pos.XY(), tr.Pos.XY())
			r := EffectiveDetectionRange(base, status.BoostRange, boosted, blocked, st.Rules.MinDetection)
			if sp.pos.Sub(tr.Pos).Length() <= r {
				status.Detected = true
				break
			}
		}

		if !status.Detected {
			status.Boost = timer.NewFinished(0)
			status.BoostRange = 0
		}
		if status.Detected != was {
			s.notify(id, status.Detected)
		}
	}
}

func (s *DetectionSystem) notify(id ecs.EntityID, detected bool) {
	st := s.world
	shared, ok := st.Shared.GetByLocal(id)
	if !ok {
		return
	}
	st.Outbox.Broadcast(packet.S_OPCODE_SET_DETECTION, packet.SetDetection{ID: shared, Detected: detected})
	s.log.Debug("detection changed", zap.Uint64("shared", uint64(shared)), zap.Bool("detected", detected))
}

// EffectiveDetectionRange is the distance at which an entity is spotted.
// Firing raises it to boostRange unless the shot came from inside smoke, in
// which case the through-smoke range applies. Smoke otherwise hides the
// entity entirely; minDetection is a floor in every case.
func EffectiveDetectionRange(base *component.BaseDetection, boostRange float64, boosted, blocked bool, minDetection float64) float64 {
	var r float64
	switch {
	case boosted && !blocked:
		r = math.Max(boostRange, base.Range)
	case boosted && blocked:
		r = base.ThroughSmoke
	case blocked:
		r = 0
	default:
		r = base.Range
	}
	return math.Max(minDetection, r)
}

func smokeBlocks(clouds []cloud, a, b geom.Vec2) bool {
	for _, c := range clouds {
		if geom.SegmentIntersectsCircle(a, b, c.pos, c.radius) {
			return true
		}
	}
	return false
}
