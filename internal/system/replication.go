package system

import (
	"math"
	"slices"
	"time"

	"github.com/navalrts/server/internal/component"
	"github.com/navalrts/server/internal/core/ecs"
	coresys "github.com/navalrts/server/internal/core/system"
	"github.com/navalrts/server/internal/geom"
	"github.com/navalrts/server/internal/net/packet"
	"github.com/navalrts/server/internal/world"
)

// timerQuantum is the resolution of replicated countdowns.
const timerQuantum = 100 * time.Millisecond

// replica is what clients were last told about one entity.
type replica struct {
	pos      geom.Vec3
	heading  float64
	vel      geom.Vec3
	hasVel   bool
	health   float64
	detected bool
	dirs     []float64
	torps    *packet.SetReloadedTorps
	smoke    *packet.SmokeState
}

// ReplicationSystem compares the state of every replicated entity with what
// was last sent and queues an update for each difference. Position and
// velocity of an entity its enemies cannot see go to its owner only; reload
// and smoke state are always private. Phase 6.
type ReplicationSystem struct {
	world *world.State
	last  map[ecs.EntityID]*replica
}

func NewReplicationSystem(ws *world.State) *ReplicationSystem {
	return &ReplicationSystem{
		world: ws,
		last:  make(map[ecs.EntityID]*replica),
	}
}

func (s *ReplicationSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *ReplicationSystem) Update(_ time.Duration) {
	st := s.world
	seen := make(map[ecs.EntityID]struct{}, len(s.last))

	for _, id := range st.Transforms.SortedIDs() {
		shared, ok := st.Shared.GetByLocal(id)
		if !ok {
			continue
		}
		seen[id] = struct{}{}
		s.replicate(id, shared)
	}

	for id := range s.last {
		if _, ok := seen[id]; !ok {
			delete(s.last, id)
		}
	}
}

func (s *ReplicationSystem) replicate(id ecs.EntityID, shared packet.SharedID) {
	st := s.world
	prev, known := s.last[id]
	if !known {
		prev = &replica{}
		s.last[id] = prev
	}

	var (
		owner    packet.ClientID
		hasOwner bool
	)
	if t, ok := st.Teams.Get(id); ok {
		owner, hasOwner = t.Client, true
	}
	hidden := false
	detected := true
	if det, ok := st.Detections.Get(id); ok {
		detected = det.Detected
		hidden = !det.Detected && hasOwner
	}
	regained := detected && !prev.detected
	prev.detected = detected

	send := func(op byte, body any, private bool) {
		if private && hasOwner {
			st.Outbox.Send(owner, op, body)
			return
		}
		st.Outbox.Broadcast(op, body)
	}

	tr, _ := st.Transforms.Get(id)
	if !known || regained || tr.Pos != prev.pos || tr.Heading != prev.heading {
		send(packet.S_OPCODE_SET_TRANSFORM, packet.SetTransform{ID: shared, Pos: tr.Pos, Heading: tr.Heading}, hidden)
		prev.pos, prev.heading = tr.Pos, tr.Heading
	}
	if v, ok := st.Velocities.Get(id); ok {
		if !known || regained || !prev.hasVel || v.V != prev.vel {
			send(packet.S_OPCODE_SET_VELOCITY, packet.SetVelocity{ID: shared, Vel: v.V}, hidden)
			prev.vel, prev.hasVel = v.V, true
		}
	}
	if hp, ok := st.Healths.Get(id); ok && (!known || hp.HP != prev.health) {
		send(packet.S_OPCODE_SET_HEALTH, packet.SetHealth{ID: shared, Health: hp.HP}, false)
		prev.health = hp.HP
	}

	ship, ok := st.Ships.Get(id)
	if !ok {
		return
	}
	dirs := make([]float64, len(ship.Turrets))
	for i := range ship.Turrets {
		dirs[i] = ship.Turrets[i].Dir.Angle()
	}
	if !known || !slices.Equal(dirs, prev.dirs) {
		send(packet.S_OPCODE_SET_TURRET_DIRS, packet.SetTurretDirs{ID: shared, Dirs: dirs}, false)
		prev.dirs = dirs
	}

	if ship.Template.Torpedoes != nil {
		torps := TorpedoReloadState(shared, ship)
		if prev.torps == nil || torps.Ready != prev.torps.Ready || !slices.Equal(torps.Reloading, prev.torps.Reloading) {
			send(packet.S_OPCODE_SET_RELOADED_TORPS, torps, true)
			prev.torps = &torps
		}
	}

	if sm, ok := st.Smoke.Get(id); ok {
		dep, _ := st.Deploying.Get(id)
		state := SmokeReplicaState(sm, dep)
		if prev.smoke == nil || !smokeEqual(state, *prev.smoke) {
			send(packet.S_OPCODE_SET_SMOKE_STATE, packet.SetSmokeState{ID: shared, State: state}, true)
			prev.smoke = &state
		}
	}
}

// TorpedoReloadState summarises a ship's volley slots: how many are ready
// and the remaining reload of the others, shortest first.
func TorpedoReloadState(shared packet.SharedID, ship *component.Ship) packet.SetReloadedTorps {
	out := packet.SetReloadedTorps{ID: shared, Reloading: []float64{}}
	for i := range ship.TorpedoReloads {
		t := &ship.TorpedoReloads[i]
		if t.Finished() {
			out.Ready++
			continue
		}
		out.Reloading = append(out.Reloading, quantize(t.Remaining()))
	}
	slices.Sort(out.Reloading)
	return out
}

// SmokeReplicaState is the owner's view of a smoke consumable.
func SmokeReplicaState(sm *component.SmokeState, dep *component.SmokeDeploying) packet.SmokeState {
	var charges *int
	if !sm.Unlimited() {
		c := sm.Charges
		charges = &c
	}
	switch {
	case dep != nil:
		return packet.SmokeState{Kind: packet.SmokeDeploying, Charges: charges, Remaining: quantize(dep.Action.Remaining())}
	case !sm.Cooldown.Finished():
		return packet.SmokeState{Kind: packet.SmokeRecharging, Charges: charges, Remaining: quantize(sm.Cooldown.Remaining())}
	}
	return packet.SmokeState{Kind: packet.SmokeRecharged, Charges: charges}
}

func smokeEqual(a, b packet.SmokeState) bool {
	if a.Kind != b.Kind || a.Remaining != b.Remaining {
		return false
	}
	if (a.Charges == nil) != (b.Charges == nil) {
		return false
	}
	return a.Charges == nil || *a.Charges == *b.Charges
}

// quantize rounds a countdown up to timerQuantum and returns seconds.
func quantize(d time.Duration) float64 {
	q := math.Ceil(float64(d) / float64(timerQuantum))
	return q * timerQuantum.Seconds()
}
