package realtime

import (
	"log/slog"
	"sync"

	"github.com/quotechat/backend/telemetry"
)

// Hub tracks every live connection and the room each one has joined. All
// methods are safe for concurrent use; emits hold the lock only long enough
// to snapshot the recipient set, then hand frames to each client's buffered
// queue without blocking.
type Hub struct {
	mu    sync.RWMutex
	conns map[*Client]struct{}
	rooms map[string]map[*Client]struct{}
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{
		conns: make(map[*Client]struct{}),
		rooms: make(map[string]map[*Client]struct{}),
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.conns[c] = struct{}{}
	n := len(h.conns)
	h.mu.Unlock()
	telemetry.SetConnectedClients(n)
	slog.Debug("client connected", "client", c.id, "total", n)
}

// unregister drops a client from the hub and from every room it joined.
// It runs on every disconnect path, clean close or error alike.
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	delete(h.conns, c)
	for room, members := range h.rooms {
		if _, ok := members[c]; ok {
			delete(members, c)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	n, r := len(h.conns), len(h.rooms)
	h.mu.Unlock()
	telemetry.SetConnectedClients(n)
	telemetry.SetRooms(r)
	slog.Debug("client disconnected", "client", c.id, "total", n)
}

// Join subscribes a client to a room. Joining the same room twice is a no-op,
// and a client may be in several rooms at once.
func (h *Hub) Join(c *Client, room string) {
	if room == "" {
		return
	}
	h.mu.Lock()
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	r := len(h.rooms)
	h.mu.Unlock()
	telemetry.SetRooms(r)
	slog.Debug("client joined room", "client", c.id, "room", room)
}

// EmitToRoom sends an event to every client subscribed to the room. A room
// with no subscribers is valid and delivers to nobody.
func (h *Hub) EmitToRoom(room, event string, data any) {
	frame, err := encodeEvent(event, data)
	if err != nil {
		slog.Error("encode event failed", "event", event, "err", err)
		return
	}
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.rooms[room]))
	for c := range h.rooms[room] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	for _, c := range targets {
		c.enqueue(frame)
	}
}

// EmitToAll sends an event to every connected client regardless of rooms.
func (h *Hub) EmitToAll(event string, data any) {
	frame, err := encodeEvent(event, data)
	if err != nil {
		slog.Error("encode event failed", "event", event, "err", err)
		return
	}
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.conns))
	for c := range h.conns {
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	for _, c := range targets {
		c.enqueue(frame)
	}
}

// RoomSize reports how many clients are subscribed to a room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// ClientCount reports how many clients are connected.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}
