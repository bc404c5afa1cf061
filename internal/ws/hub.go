package ws

import (
	"sync"

	"github.com/greencart/backend/internal/metrics"
	"github.com/greencart/backend/pkg/logger"
)

// Conn is the surface a room subscriber must provide. Production conns wrap
// a websocket connection; tests use in-memory recorders.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Frame is the wire envelope on both channels.
type Frame struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub maps room keys to subscriber sets. Room membership is a volatile
// subscription: it is mutated only by join/leave/disconnect events and read
// by the broadcast paths. Authoritative membership lives in the database.
type Hub struct {
	channel string

	mu    sync.RWMutex
	rooms map[string]map[Conn]struct{}
}

func NewHub(channel string) *Hub {
	return &Hub{
		channel: channel,
		rooms:   make(map[string]map[Conn]struct{}),
	}
}

// Join subscribes the connection to a room. Joining twice is a no-op.
func (h *Hub) Join(room string, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subscribers, ok := h.rooms[room]
	if !ok {
		subscribers = make(map[Conn]struct{})
		h.rooms[room] = subscribers
	}
	subscribers[c] = struct{}{}
}

func (h *Hub) Leave(room string, c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subscribers, ok := h.rooms[room]; ok {
		delete(subscribers, c)
		if len(subscribers) == 0 {
			delete(h.rooms, room)
		}
	}
}

// Disconnect removes the connection from every room it joined.
func (h *Hub) Disconnect(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for room, subscribers := range h.rooms {
		delete(subscribers, c)
		if len(subscribers) == 0 {
			delete(h.rooms, room)
		}
	}
}

// RoomSize reports the number of live subscribers in a room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Broadcast emits one event to every subscriber of a room. Write failures
// drop the connection from all rooms; remaining subscribers are unaffected.
func (h *Hub) Broadcast(room, event string, data interface{}) {
	h.mu.RLock()
	subscribers := make([]Conn, 0, len(h.rooms[room]))
	for c := range h.rooms[room] {
		subscribers = append(subscribers, c)
	}
	h.mu.RUnlock()

	frame := Frame{Event: event, Data: data}
	for _, c := range subscribers {
		if err := c.WriteJSON(frame); err != nil {
			logger.Warn("ws_broadcast_write_failed", map[string]interface{}{
				"channel": h.channel,
				"room":    room,
				"event":   event,
				"error":   err.Error(),
			})
			h.Disconnect(c)
		}
	}

	metrics.BroadcastsTotal.WithLabelValues(event).Inc()
}

// Send emits one event to a single connection.
func (h *Hub) Send(c Conn, event string, data interface{}) error {
	return c.WriteJSON(Frame{Event: event, Data: data})
}
