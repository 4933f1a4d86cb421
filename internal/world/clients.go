package world

import (
	"sort"

	"golang.org/x/time/rate"

	"github.com/navalrts/server/internal/net/packet"
)

// Client is one participant of the match.
type Client struct {
	ID    packet.ClientID
	Name  string
	State packet.ClientState

	limiter *rate.Limiter
}

// Departed reports whether the client has left; nothing more is sent to it.
func (c *Client) Departed() bool { return c.State == packet.StateDeparted }

// Allow consumes one inbound command token.
func (c *Client) Allow() bool {
	return c.limiter == nil || c.limiter.Allow()
}

// Clients is the match roster, kept in ascending id order.
type Clients struct {
	list      []*Client
	byID      map[packet.ClientID]*Client
	perSecond float64
	burst     int
}

// NewClients creates a roster. A perSecond of zero disables rate limiting.
func NewClients(perSecond float64, burst int) *Clients {
	return &Clients{
		byID:      make(map[packet.ClientID]*Client),
		perSecond: perSecond,
		burst:     burst,
	}
}

// Add registers a client in the handshake state.
func (cs *Clients) Add(id packet.ClientID) *Client {
	if c, ok := cs.byID[id]; ok {
		return c
	}
	c := &Client{ID: id, State: packet.StateHandshake}
	if cs.perSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cs.perSecond), cs.burst)
	}
	cs.byID[id] = c
	cs.list = append(cs.list, c)
	sort.Slice(cs.list, func(i, j int) bool { return cs.list[i].ID < cs.list[j].ID })
	return c
}

func (cs *Clients) Get(id packet.ClientID) (*Client, bool) {
	c, ok := cs.byID[id]
	return c, ok
}

// All returns every client, including departed ones.
func (cs *Clients) All() []*Client { return cs.list }

func (cs *Clients) Len() int { return len(cs.list) }

// Opponent returns the first other client.
func (cs *Clients) Opponent(id packet.ClientID) (*Client, bool) {
	for _, c := range cs.list {
		if c.ID != id {
			return c, true
		}
	}
	return nil, false
}

// Depart marks a client as gone. It reports whether the state changed.
func (cs *Clients) Depart(id packet.ClientID) bool {
	c, ok := cs.byID[id]
	if !ok || c.Departed() {
		return false
	}
	c.State = packet.StateDeparted
	return true
}

// Roster returns the wire form of the roster.
func (cs *Clients) Roster() []packet.ClientInfo {
	out := make([]packet.ClientInfo, 0, len(cs.list))
	for _, c := range cs.list {
		out = append(out, packet.ClientInfo{ID: c.ID, Name: c.Name})
	}
	return out
}
