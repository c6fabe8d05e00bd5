// Package ws is the real-time delivery layer. Connections are grouped
// into rooms keyed by user id; one user may hold several connections
// (multi-tab, multi-device) in the same room.
package ws

import (
	"sync"

	"go.uber.org/zap"
)

// Event is the wire envelope pushed to clients.
type Event struct {
	Name    string `json:"event"`
	Payload any    `json:"payload"`
}

// Emitter is what the engine and message path see. A failed emit to an
// empty room is a silent no-op, never an error.
type Emitter interface {
	Emit(userID, event string, payload any)
}

type Hub struct {
	mu    sync.Mutex
	rooms map[string]map[*Client]struct{}
	log   *zap.SugaredLogger
}

func NewHub(log *zap.SugaredLogger) *Hub {
	return &Hub{rooms: make(map[string]map[*Client]struct{}), log: log}
}

func (h *Hub) Join(userID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[userID]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[userID] = room
	}
	room[c] = struct{}{}
}

func (h *Hub) Leave(userID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if room, ok := h.rooms[userID]; ok {
		delete(room, c)
		if len(room) == 0 {
			delete(h.rooms, userID)
		}
	}
	c.close()
}

// Emit delivers the event to every connection in the user's room.
// The hub lock serializes emissions, so each connection observes
// events in emission order.
func (h *Hub) Emit(userID, event string, payload any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[userID]
	if !ok {
		return
	}
	ev := Event{Name: event, Payload: payload}
	for c := range room {
		if !c.enqueue(ev) {
			h.log.Warnw("slow websocket client, event dropped", "user_id", userID, "event", event)
		}
	}
}

// Connections reports how many connections are joined to the room.
func (h *Hub) Connections(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[userID])
}
