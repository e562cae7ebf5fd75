package server

import "fmt"

// MatchRoomSize is the capacity of a 1v1 match room.
const MatchRoomSize = 2

// Room is a named, capacity-bounded grouping of clients. Member order is
// join order. Rooms carry no lock of their own: every mutation and every
// read of membership happens under the owning Registry's mutex.
type Room struct {
	name       string
	clients    []*Client
	maxClients int
	host       *Client // explicit host, nil until assigned
}

func newRoom(name string, maxClients int) *Room {
	return &Room{name: name, maxClients: maxClients}
}

// Name returns the room's unique key.
func (r *Room) Name() string {
	return r.name
}

// Host returns the explicit host when one is set, otherwise the oldest
// member. Nil for an empty room.
func (r *Room) Host() *Client {
	if r.host != nil {
		return r.host
	}
	if len(r.clients) == 0 {
		return nil
	}
	return r.clients[0]
}

// NumClients returns the current member count.
func (r *Room) NumClients() int {
	return len(r.clients)
}

// MaxClients returns the room capacity.
func (r *Room) MaxClients() int {
	return r.maxClients
}

// IsFull reports whether every seat is taken.
func (r *Room) IsFull() bool {
	return len(r.clients) >= r.maxClients
}

// IsEmpty reports whether the room has no members.
func (r *Room) IsEmpty() bool {
	return len(r.clients) == 0
}

// Info renders the room listing entry, "name count/max".
func (r *Room) Info() string {
	return fmt.Sprintf("%s %d/%d", r.name, len(r.clients), r.maxClients)
}

func (r *Room) addClient(c *Client) {
	r.clients = append(r.clients, c)
}

func (r *Room) removeClient(c *Client) {
	for i, member := range r.clients {
		if member == c {
			r.clients = append(r.clients[:i], r.clients[i+1:]...)
			break
		}
	}
	if r.host == c {
		// Host authority falls back to the oldest remaining member.
		r.host = nil
	}
}
