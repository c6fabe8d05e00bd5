// Package repository is the persistence boundary. Stores must provide
// read-your-writes consistency within a single process; anything keyed
// and durable works behind these interfaces.
package repository

import (
	"context"
	"time"

	"github.com/campusdesk/portal/internal/models"
)

// RequestStore holds meeting-request records keyed by id.
type RequestStore interface {
	Insert(ctx context.Context, r *models.MeetingRequest) error
	Get(ctx context.Context, id string) (*models.MeetingRequest, error)
	// Update replaces the record only if its stored UpdatedAt still equals
	// expected. A mismatch returns apperr.ErrConflictingTransition so a
	// losing concurrent writer never silently overwrites.
	Update(ctx context.Context, r *models.MeetingRequest, expected time.Time) error
	// ListByParty returns requests where the user is requester or assignee,
	// newest first. Empty status means all statuses.
	ListByParty(ctx context.Context, userID string, status models.Status) ([]*models.MeetingRequest, error)
}

// MessageLog is the append-only message store. Entries are never
// reordered or deleted; only the read flag may flip false -> true.
type MessageLog interface {
	Append(ctx context.Context, m *models.Message) error
	// ForUser returns every message sent or received by the user in log order.
	ForUser(ctx context.Context, userID string) ([]models.Message, error)
	// Thread returns the messages between two users in log order.
	Thread(ctx context.Context, a, b string) ([]models.Message, error)
	// MarkRead flips the unread flag on messages from contact to viewer.
	// Returns how many were flipped; calling again is a no-op.
	MarkRead(ctx context.Context, viewerID, contactID string) (int64, error)
}
