package server

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"dukelink"
)

// Registry holds the process-wide session state: every connected client and
// every live room. All mutations and membership reads go through one coarse
// mutex, so concurrent joins, leaves, and disconnects cannot race.
//
// Outbound messages decided under the lock are delivered after it is
// released; a slow client's send queue never stalls the registry.
type Registry struct {
	mu      sync.Mutex
	clients map[string]*Client
	rooms   map[string]*Room
	logger  *log.Logger
}

// send is one decided outbound message, delivered after the lock drops.
type send struct {
	to      *Client
	command string
	payload string
}

func NewRegistry(logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.Default()
	}
	return &Registry{
		clients: make(map[string]*Client),
		rooms:   make(map[string]*Room),
		logger:  logger,
	}
}

// Register adds a freshly accepted client to the connected set.
func (g *Registry) Register(c *Client) {
	g.mu.Lock()
	g.clients[c.ID()] = c
	g.mu.Unlock()

	g.logger.Printf("new client connected with addr:%s and uid:%s", c.RemoteAddr(), c.ID())
}

// Remove is the disconnect path: the client leaves its room (deleting the
// room when it empties) and is dropped from the connected set.
func (g *Registry) Remove(c *Client) {
	g.mu.Lock()
	g.exitRoomLocked(c)
	delete(g.clients, c.ID())
	g.mu.Unlock()
}

// ExitRoom removes the client from its current room, deleting the room when
// it becomes empty. Idempotent when the client has no room.
func (g *Registry) ExitRoom(c *Client) {
	g.mu.Lock()
	g.exitRoomLocked(c)
	g.mu.Unlock()
}

func (g *Registry) exitRoomLocked(c *Client) {
	room := c.room
	if room == nil {
		return
	}
	room.removeClient(c)
	c.room = nil
	if room.IsEmpty() {
		delete(g.rooms, room.Name())
		g.logger.Printf("room %s was deleted", room.Name())
	}
}

// getOrCreateRoomLocked resolves a room by name, creating it with match
// capacity on a miss. Callers must hold g.mu.
func (g *Registry) getOrCreateRoomLocked(name string) *Room {
	room := g.rooms[name]
	if room == nil {
		room = newRoom(name, MatchRoomSize)
		g.rooms[name] = room
		g.logger.Printf("room %s was created", name)
	}
	return room
}

// JoinRoom resolves the room by name, creating it with match capacity on a
// miss, and runs the join flow:
//
//   - full room: informational reply, no state change
//   - already a member: informational reply, no-op
//   - member of a different room: moved, old room deleted if emptied
//   - otherwise: added; the join that fills the second seat fires a single
//     room_ready broadcast to every member, the sole match-start trigger
func (g *Registry) JoinRoom(ctx context.Context, c *Client, roomName string) {
	var sends []send

	g.mu.Lock()
	room := g.getOrCreateRoomLocked(roomName)

	switch {
	case room.IsFull():
		sends = append(sends, send{c, dukelink.CmdInfo, dukelink.InfoRoomFull})

	case c.room == room:
		sends = append(sends, send{c, dukelink.CmdInfo, dukelink.InfoAlreadyInRoom})

	default:
		g.exitRoomLocked(c)

		room.addClient(c)
		c.room = room
		sends = append(sends, send{c, dukelink.CmdRoom, roomName})

		if room.IsFull() {
			// The not-full -> full transition, and only it, broadcasts.
			for _, member := range room.clients {
				sends = append(sends, send{member, dukelink.CmdRoomReady, ""})
			}
		}
	}
	g.mu.Unlock()

	g.deliver(ctx, sends)
}

// Broadcast sends to every connected client except the excluded one.
func (g *Registry) Broadcast(ctx context.Context, command, payload string, exclude *Client) {
	var sends []send

	g.mu.Lock()
	for _, c := range g.clients {
		if c != exclude {
			sends = append(sends, send{c, command, payload})
		}
	}
	g.mu.Unlock()

	g.deliver(ctx, sends)
}

// RoomBroadcast sends to every member of the client's room except the
// excluded one.
func (g *Registry) RoomBroadcast(ctx context.Context, room *Room, command, payload string, exclude *Client) {
	var sends []send

	g.mu.Lock()
	for _, member := range room.clients {
		if member != exclude {
			sends = append(sends, send{member, command, payload})
		}
	}
	g.mu.Unlock()

	g.deliver(ctx, sends)
}

// MatchRoom returns the sender's room, but only when the sender sits in a
// full match room. Relay commands sent from anywhere else see ok=false and
// are silently dropped by their handlers.
func (g *Registry) MatchRoom(c *Client) (*Room, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	room := c.room
	if room == nil || !room.IsFull() || room.MaxClients() != MatchRoomSize {
		return nil, false
	}
	return room, true
}

// TurnAuthority reports whether the client is the host of a full match room,
// the only seat allowed to trigger turn-start.
func (g *Registry) TurnAuthority(c *Client) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	room := c.room
	if room == nil || !room.IsFull() || room.MaxClients() != MatchRoomSize {
		return false
	}
	return room.Host() == c
}

// FindByTag returns every connected client whose id or name matches target.
func (g *Registry) FindByTag(target string) []*Client {
	g.mu.Lock()
	defer g.mu.Unlock()

	var out []*Client
	for _, c := range g.clients {
		if c.ID() == target || c.Name() == target {
			out = append(out, c)
		}
	}
	return out
}

// NumClients returns the connected-client count.
func (g *Registry) NumClients() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.clients)
}

// NumRooms returns the live-room count.
func (g *Registry) NumRooms() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.rooms)
}

// Stats renders the operator stats line.
func (g *Registry) Stats() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return fmt.Sprintf("clients:%d|rooms:%d", len(g.clients), len(g.rooms))
}

// Names returns the display names clients have set, sorted.
func (g *Registry) Names() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	var names []string
	for _, c := range g.clients {
		if name := c.Name(); name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// RoomInfos returns each room's listing entry, sorted by room name.
func (g *Registry) RoomInfos() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	var infos []string
	for _, room := range g.rooms {
		infos = append(infos, room.Info())
	}
	sort.Strings(infos)
	return infos
}

// RoomSummary is an operator-facing snapshot of one room.
type RoomSummary struct {
	Name       string
	NumClients int
	MaxClients int
	HostTag    string
	MemberTags []string
}

// RoomSummaries returns operator-facing snapshots of every room, sorted by
// room name.
func (g *Registry) RoomSummaries() []RoomSummary {
	g.mu.Lock()
	defer g.mu.Unlock()

	var out []RoomSummary
	for _, room := range g.rooms {
		summary := RoomSummary{
			Name:       room.Name(),
			NumClients: room.NumClients(),
			MaxClients: room.MaxClients(),
		}
		if host := room.Host(); host != nil {
			summary.HostTag = host.Tag()
		}
		for _, member := range room.clients {
			summary.MemberTags = append(summary.MemberTags, member.Tag())
		}
		out = append(out, summary)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// closeAll closes every connected client, used during server shutdown.
func (g *Registry) closeAll(ctx context.Context) {
	g.mu.Lock()
	clients := make([]*Client, 0, len(g.clients))
	for _, c := range g.clients {
		clients = append(clients, c)
	}
	g.mu.Unlock()

	for _, c := range clients {
		c.Close(ctx)
	}
}

func (g *Registry) deliver(ctx context.Context, sends []send) {
	for _, s := range sends {
		if err := s.to.Send(ctx, s.command, s.payload); err != nil {
			g.logger.Printf("send %s to %s failed: %v", s.command, s.to.Tag(), err)
		}
	}
}
