package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/campusdesk/portal/internal/apperr"
	"github.com/campusdesk/portal/internal/models"
)

// MemoryStore keeps requests and the message log in process memory.
// Used by tests and the dev profile; implements both store interfaces.
type MemoryStore struct {
	mu       sync.RWMutex
	requests map[string]*models.MeetingRequest
	log      []models.Message
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{requests: make(map[string]*models.MeetingRequest)}
}

func (s *MemoryStore) Insert(_ context.Context, r *models.MeetingRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[r.ID] = r.Clone()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*models.MeetingRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return r.Clone(), nil
}

func (s *MemoryStore) Update(_ context.Context, r *models.MeetingRequest, expected time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.requests[r.ID]
	if !ok {
		return apperr.ErrNotFound
	}
	if !cur.UpdatedAt.Equal(expected) {
		return apperr.ErrConflictingTransition
	}
	s.requests[r.ID] = r.Clone()
	return nil
}

func (s *MemoryStore) ListByParty(_ context.Context, userID string, status models.Status) ([]*models.MeetingRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.MeetingRequest
	for _, r := range s.requests {
		if r.RequesterID != userID && r.AssigneeID != userID {
			continue
		}
		if status != "" && r.Status != status {
			continue
		}
		out = append(out, r.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) Append(_ context.Context, m *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = append(s.log, *m)
	return nil
}

func (s *MemoryStore) ForUser(_ context.Context, userID string) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Message
	for _, m := range s.log {
		if m.SenderID == userID || m.ReceiverID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *MemoryStore) Thread(_ context.Context, a, b string) ([]models.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Message
	for _, m := range s.log {
		if (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *MemoryStore) MarkRead(_ context.Context, viewerID, contactID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for i := range s.log {
		m := &s.log[i]
		if m.ReceiverID == viewerID && m.SenderID == contactID && !m.IsRead {
			m.IsRead = true
			n++
		}
	}
	return n, nil
}
