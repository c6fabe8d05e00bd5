// Package clientstate is the connected client's local cache: the
// request list and message log it has observed, with derived views
// recomputed on every change. A UI embedding this container seeds it
// with a bulk fetch and then feeds it real-time events.
package clientstate

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/campusdesk/portal/internal/messaging"
	"github.com/campusdesk/portal/internal/models"
)

// reconcileWindow bounds the timestamp-proximity fallback when an echo
// arrives without a correlation id.
const reconcileWindow = 10 * time.Second

type Container struct {
	mu     sync.RWMutex
	viewer models.Identity

	requests map[string]*models.MeetingRequest
	log      []models.Message

	// correlation id -> index into log of the optimistic entry
	pending map[string]int

	sessions []models.ConversationSession
}

func New(viewer models.Identity) *Container {
	return &Container{
		viewer:   viewer,
		requests: make(map[string]*models.MeetingRequest),
		pending:  make(map[string]int),
	}
}

// SeedRequests replaces the request cache from a bulk fetch.
func (c *Container) SeedRequests(rs []*models.MeetingRequest) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = make(map[string]*models.MeetingRequest, len(rs))
	for _, r := range rs {
		c.requests[r.ID] = r.Clone()
	}
}

// SeedMessages replaces the local log from a bulk fetch and drops any
// unreconciled optimistic entries.
func (c *Container) SeedMessages(msgs []models.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.log = append([]models.Message(nil), msgs...)
	c.pending = make(map[string]int)
	c.recompute()
}

// ApplyRequestEvent upserts by id. request_created and request_updated
// carry the full record, so replace-or-insert is all that is needed.
func (c *Container) ApplyRequestEvent(r *models.MeetingRequest) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests[r.ID] = r.Clone()
}

// OptimisticSend appends a locally assumed message and returns the
// correlation id to carry through the round trip.
func (c *Container) OptimisticSend(receiverID, text string, att *models.Attachment) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	corrID := uuid.New().String()
	c.log = append(c.log, models.Message{
		ID:            corrID, // provisional until the echo arrives
		SenderID:      c.viewer.UserID,
		ReceiverID:    receiverID,
		Text:          text,
		Attachment:    att,
		Timestamp:     time.Now().UTC(),
		CorrelationID: corrID,
	})
	c.pending[corrID] = len(c.log) - 1
	c.recompute()
	return corrID
}

// ApplyMessageEvent merges an authoritative message. An echo of our own
// optimistic send replaces the provisional entry in place instead of
// appending a duplicate.
func (c *Container) ApplyMessageEvent(m models.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if idx, ok := c.reconcileIndex(m); ok {
		delete(c.pending, c.log[idx].CorrelationID)
		c.log[idx] = m
	} else {
		c.log = append(c.log, m)
	}
	c.recompute()
}

// MarkThreadRead mirrors a confirmed markRead call into the local log.
func (c *Container) MarkThreadRead(contactID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.log {
		m := &c.log[i]
		if m.ReceiverID == c.viewer.UserID && m.SenderID == contactID {
			m.IsRead = true
		}
	}
	c.recompute()
}

// Sessions returns the derived conversation list, newest first. The
// slice is a copy; callers may hold or mutate it without touching the
// container's state.
func (c *Container) Sessions() []models.ConversationSession {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]models.ConversationSession(nil), c.sessions...)
}

// Requests returns the cached requests, newest first, optionally
// filtered by status.
func (c *Container) Requests(status models.Status) []*models.MeetingRequest {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*models.MeetingRequest, 0, len(c.requests))
	for _, r := range c.requests {
		if status != "" && r.Status != status {
			continue
		}
		out = append(out, r.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (c *Container) reconcileIndex(m models.Message) (int, bool) {
	if m.CorrelationID != "" {
		if idx, ok := c.pending[m.CorrelationID]; ok {
			return idx, true
		}
	}
	if m.SenderID != c.viewer.UserID {
		return 0, false
	}
	// fallback: same parties and text, close enough in time
	for _, idx := range c.pending {
		local := c.log[idx]
		if local.ReceiverID == m.ReceiverID && local.Text == m.Text {
			d := m.Timestamp.Sub(local.Timestamp)
			if d < 0 {
				d = -d
			}
			if d <= reconcileWindow {
				return idx, true
			}
		}
	}
	return 0, false
}

func (c *Container) recompute() {
	c.sessions = messaging.BuildSessions(c.log, c.viewer.UserID)
}
