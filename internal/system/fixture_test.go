package system

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/navalrts/server/internal/core/ecs"
	"github.com/navalrts/server/internal/data"
	"github.com/navalrts/server/internal/geom"
	"github.com/navalrts/server/internal/net/packet"
	"github.com/navalrts/server/internal/world"
)

const testShips = `
ships:
  - name: cutter
    class: destroyer
    hull: {length: 100, width: 10, freeboard: 5, draft: 4}
    max_speed_kts: 20
    acceleration_kts: 2
    turning_rate: 0.2
    health: 1000
    detection: 5000
    detection_through_smoke: 4500
    turret_templates:
      gun: {reload_secs: 3, damage: 100, muzzle_vel: 800, max_range: 9000, barrel_count: 2, barrel_spacing: 1}
    turrets:
      - {template: gun, l: {from_max: 10}, default_dir: 0}
    smoke:
      action_secs: 10
      dissipation_secs: 30
      radius: 300
      cooldown_secs: 60
  - name: escort
    hull: {length: 80, width: 8, freeboard: 4, draft: 3}
    max_speed_kts: 20
    health: 1000
    detection: 5000
    turret_templates:
      aa: {reload_secs: 1, damage: 10, muzzle_vel: 800, max_range: 9000, barrel_count: 1, targeting: secondary}
    turrets:
      - {template: aa, default_dir: 90, movement_arc: [10, 170]}
  - name: picket
    hull: {length: 60, width: 8, freeboard: 4, draft: 3}
    max_speed_kts: 20
    health: 500
    detection: 4000
    turret_templates:
      gun: {reload_secs: 1, damage: 50, muzzle_vel: 800, max_range: 9000, barrel_count: 1}
    turrets:
      - {template: gun, default_dir: 0, movement_arc: [-150, 150], firing_arc: [-60, 60]}
`

func newTestWorld(t *testing.T) *world.State {
	t.Helper()
	table, err := data.ParseShipTable([]byte(testShips))
	require.NoError(t, err)
	st := world.NewState(world.Options{
		Catalog: table,
		RNG:     rand.New(rand.NewPCG(7, 11)),
	})
	for _, id := range []packet.ClientID{1, 2} {
		st.Clients.Add(id).State = packet.StateInMatch
	}
	return st
}

func spawn(t *testing.T, st *world.State, name string, team packet.ClientID, x, y, heading float64) ecs.EntityID {
	t.Helper()
	tmpl := st.Catalog.Get(name)
	require.NotNil(t, tmpl)
	return st.SpawnShip(tmpl, team, geom.V2(x, y), heading)
}

func sharedID(t *testing.T, st *world.State, id ecs.EntityID) packet.SharedID {
	t.Helper()
	s, ok := st.Shared.GetByLocal(id)
	require.True(t, ok)
	return s
}

// sent returns the drained packets with opcode op, decoded as T.
func sent[T any](t *testing.T, pkts []packet.Packet, op byte) ([]packet.ClientID, []T) {
	t.Helper()
	var to []packet.ClientID
	var bodies []T
	for _, p := range pkts {
		if p.Op != op {
			continue
		}
		var v T
		require.NoError(t, packet.NewReader(p).Decode(&v))
		to = append(to, p.Client)
		bodies = append(bodies, v)
	}
	return to, bodies
}

func moveTo(st *world.State, id ecs.EntityID, x, y float64) {
	tr, _ := st.Transforms.Get(id)
	tr.Pos = geom.V3(x, y, 0)
	st.Grid.Move(id, geom.V2(x, y))
}
