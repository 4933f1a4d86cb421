package event

import (
	"github.com/navalrts/server/internal/core/ecs"
	"github.com/navalrts/server/internal/net/packet"
)

// ShipSunk is emitted when a ship is despawned after its health ran out.
// Ship is no longer alive when the event is delivered.
type ShipSunk struct {
	Ship   ecs.EntityID
	Shared packet.SharedID
	Team   packet.ClientID
	Name   string
}

// ClientLeft is emitted when a client departs mid-match.
type ClientLeft struct {
	Client packet.ClientID
}
