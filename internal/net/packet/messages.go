package packet

import "github.com/navalrts/server/internal/geom"

// Client -> match.

type HandshakeReply struct {
	Name string `msgpack:"name"`
}

type Echo struct {
	Text string `msgpack:"text"`
}

// SetMoveOrder replaces a ship's waypoint queue. The match sends the same
// shape back to the owner whenever the queue changes.
type SetMoveOrder struct {
	ID        SharedID    `msgpack:"id"`
	Waypoints []geom.Vec2 `msgpack:"waypoints"`
}

// SetFireTarget assigns or clears (nil Target) a ship's fire target.
type SetFireTarget struct {
	ID     SharedID  `msgpack:"id"`
	Target *SharedID `msgpack:"target"`
}

type LaunchTorpedoes struct {
	Ship SharedID  `msgpack:"ship"`
	Dir  geom.Vec2 `msgpack:"dir"`
}

type UseSmoke struct {
	Ship SharedID `msgpack:"ship"`
}

type ClientLeft struct{}

// Client -> lobby.

type LobbyHello struct {
	Name string `msgpack:"name"`
}

type SetReady struct {
	Ready bool `msgpack:"ready"`
}

// Match -> client.

type HandshakeA struct {
	YourClient ClientID `msgpack:"your_client"`
}

type ClientInfo struct {
	ID   ClientID `msgpack:"id"`
	Name string   `msgpack:"name"`
}

type HandshakeB struct {
	Clients []ClientInfo `msgpack:"clients"`
}

type PrintMsg struct {
	Text string `msgpack:"text"`
}

type SpawnShip struct {
	ID         SharedID  `msgpack:"id"`
	Template   string    `msgpack:"template"`
	Team       ClientID  `msgpack:"team"`
	Pos        geom.Vec3 `msgpack:"pos"`
	Heading    float64   `msgpack:"heading"`
	Vel        geom.Vec3 `msgpack:"vel"`
	Health     float64   `msgpack:"health"`
	TurretDirs []float64 `msgpack:"turret_dirs"`
}

// SpawnBullet carries the launch state; clients integrate the same
// closed-form trajectory the server uses.
type SpawnBullet struct {
	ID         SharedID  `msgpack:"id"`
	Team       ClientID  `msgpack:"team"`
	Pos        geom.Vec3 `msgpack:"pos"`
	Vel        geom.Vec3 `msgpack:"vel"`
	Gravity    float64   `msgpack:"gravity"`
	FlightTime float64   `msgpack:"flight_time"`
}

type SpawnTorpedo struct {
	ID   SharedID  `msgpack:"id"`
	Team ClientID  `msgpack:"team"`
	Pos  geom.Vec3 `msgpack:"pos"`
	Vel  geom.Vec3 `msgpack:"vel"`
}

type SpawnSmokePuff struct {
	ID     SharedID  `msgpack:"id"`
	Pos    geom.Vec3 `msgpack:"pos"`
	Radius float64   `msgpack:"radius"`
}

type DestroyEntity struct {
	ID SharedID `msgpack:"id"`
}

type SetTransform struct {
	ID      SharedID  `msgpack:"id"`
	Pos     geom.Vec3 `msgpack:"pos"`
	Heading float64   `msgpack:"heading"`
}

type SetVelocity struct {
	ID  SharedID  `msgpack:"id"`
	Vel geom.Vec3 `msgpack:"vel"`
}

// SetTurretDirs lists ship-relative bearings in radians, one per turret.
type SetTurretDirs struct {
	ID   SharedID  `msgpack:"id"`
	Dirs []float64 `msgpack:"dirs"`
}

type SetHealth struct {
	ID     SharedID `msgpack:"id"`
	Health float64  `msgpack:"health"`
}

// SetReloadedTorps reports volley slots ready to fire and the remaining
// seconds of the others, ascending.
type SetReloadedTorps struct {
	ID        SharedID  `msgpack:"id"`
	Ready     int       `msgpack:"ready"`
	Reloading []float64 `msgpack:"reloading"`
}

// SmokeStateKind tags SmokeState.
type SmokeStateKind string

const (
	SmokeDeploying  SmokeStateKind = "deploying"
	SmokeRecharging SmokeStateKind = "recharging"
	SmokeRecharged  SmokeStateKind = "recharged"
)

// SmokeState is the owner's view of a smoke consumable. Charges is nil when
// unlimited. Remaining is the action time left while deploying and the
// cooldown left while recharging.
type SmokeState struct {
	Kind      SmokeStateKind `msgpack:"kind"`
	Charges   *int           `msgpack:"charges"`
	Remaining float64        `msgpack:"remaining,omitempty"`
}

type SetSmokeState struct {
	ID    SharedID   `msgpack:"id"`
	State SmokeState `msgpack:"state"`
}

type SetDetection struct {
	ID       SharedID `msgpack:"id"`
	Detected bool     `msgpack:"detected"`
}

// Lobby -> client.

type LobbyWelcome struct {
	YourClient ClientID     `msgpack:"your_client"`
	Clients    []ClientInfo `msgpack:"clients"`
}

type ClientJoined struct {
	Client ClientInfo `msgpack:"client"`
}

type ClientDeparted struct {
	ID ClientID `msgpack:"id"`
}

type MatchJoined struct {
	MatchID  string     `msgpack:"match_id"`
	Opponent ClientInfo `msgpack:"opponent"`
}

type MatchEnded struct {
	MatchID string `msgpack:"match_id"`
	Reason  string `msgpack:"reason,omitempty"`
}
