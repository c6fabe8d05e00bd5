// Package messaging owns the append-only message log: the send path,
// the read-flag flip, and the per-contact session projection.
package messaging

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campusdesk/portal/internal/apperr"
	"github.com/campusdesk/portal/internal/models"
	"github.com/campusdesk/portal/internal/repository"
	"github.com/campusdesk/portal/internal/ws"
)

type SendInput struct {
	ReceiverID    string             `json:"receiver_id"`
	Text          string             `json:"text"`
	Attachment    *models.Attachment `json:"attachment,omitempty"`
	CorrelationID string             `json:"correlation_id,omitempty"`
}

type Service struct {
	log     repository.MessageLog
	emitter ws.Emitter
	logger  *zap.SugaredLogger
	timeout time.Duration
	now     func() time.Time

	mu       sync.Mutex
	lastSent map[string]time.Time
}

func NewService(log repository.MessageLog, emitter ws.Emitter, timeout time.Duration, logger *zap.SugaredLogger) *Service {
	return &Service{
		log:      log,
		emitter:  emitter,
		logger:   logger,
		timeout:  timeout,
		now:      func() time.Time { return time.Now().UTC() },
		lastSent: make(map[string]time.Time),
	}
}

// Send appends one message. The id and timestamp are assigned here, not
// by the client; timestamps never go backwards for a given sender. The
// receiver's room gets message_received; the sender already holds the
// optimistic copy and reconciles via the correlation id.
func (s *Service) Send(ctx context.Context, actor models.Identity, in SendInput) (*models.Message, error) {
	if strings.TrimSpace(in.Text) == "" && in.Attachment == nil {
		return nil, apperr.ErrEmptyMessage
	}
	if in.ReceiverID == "" {
		return nil, apperr.ErrNotFound
	}

	m := &models.Message{
		ID:            uuid.New().String(),
		SenderID:      actor.UserID,
		ReceiverID:    in.ReceiverID,
		Text:          in.Text,
		Attachment:    in.Attachment,
		Timestamp:     s.stamp(actor.UserID),
		IsRead:        false,
		CorrelationID: in.CorrelationID,
	}

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.log.Append(cctx, m); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperr.ErrTimeout
		}
		return nil, err
	}

	s.emitter.Emit(m.ReceiverID, models.EventMessageReceived, m)
	return m, nil
}

// MarkRead flips every unread message from contact to viewer. Calling
// it twice has no additional effect.
func (s *Service) MarkRead(ctx context.Context, actor models.Identity, contactID string) error {
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	n, err := s.log.MarkRead(cctx, actor.UserID, contactID)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return apperr.ErrTimeout
		}
		return err
	}
	if n > 0 {
		s.logger.Debugw("messages marked read", "viewer", actor.UserID, "contact", contactID, "count", n)
	}
	return nil
}

// Sessions projects the viewer's slice of the log into per-contact
// conversations.
func (s *Service) Sessions(ctx context.Context, actor models.Identity) ([]models.ConversationSession, error) {
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	msgs, err := s.log.ForUser(cctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	return BuildSessions(msgs, actor.UserID), nil
}

// Thread returns the raw message list between the viewer and a contact
// in log order.
func (s *Service) Thread(ctx context.Context, actor models.Identity, contactID string) ([]models.Message, error) {
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.log.Thread(cctx, actor.UserID, contactID)
}

// stamp assigns a send timestamp that never precedes the sender's
// previous one, even if the wall clock steps back.
func (s *Service) stamp(senderID string) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.now()
	if last, ok := s.lastSent[senderID]; ok && !t.After(last) {
		t = last.Add(time.Microsecond)
	}
	s.lastSent[senderID] = t
	return t
}
