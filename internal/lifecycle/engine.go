// Package lifecycle is the sole authority for meeting-request status
// changes. Every legal edge of the state machine lives in this package;
// storage and fan-out are injected.
package lifecycle

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campusdesk/portal/internal/apperr"
	"github.com/campusdesk/portal/internal/models"
	"github.com/campusdesk/portal/internal/repository"
	"github.com/campusdesk/portal/internal/ws"
)

// Notifier is told about schedule/rejection outcomes so email can go
// out. It is off the critical path: failures are logged, never returned.
type Notifier interface {
	LifecycleEvent(ctx context.Context, r *models.MeetingRequest)
}

type CreateInput struct {
	AssigneeID    string   `json:"assignee_id"`
	IssueCategory string   `json:"issue_category"`
	Description   string   `json:"description"`
	Attachments   []string `json:"attachments,omitempty"`
	PreferredDate string   `json:"preferred_date,omitempty"`
	PreferredTime string   `json:"preferred_time,omitempty"`
}

type TransitionInput struct {
	To              models.Status      `json:"to"`
	ScheduledDate   string             `json:"scheduled_date,omitempty"`
	ScheduledTime   string             `json:"scheduled_time,omitempty"`
	Location        string             `json:"location,omitempty"`
	Mode            models.MeetingMode `json:"mode,omitempty"`
	AssigneeNotes   string             `json:"assignee_notes,omitempty"`
	RejectionReason string             `json:"rejection_reason,omitempty"`
}

// Outcome is one entry of a bulk operation's per-id result list.
type Outcome struct {
	ID  string
	Err error
}

type Engine struct {
	store    repository.RequestStore
	emitter  ws.Emitter
	notifier Notifier
	log      *zap.SugaredLogger
	timeout  time.Duration
	now      func() time.Time
}

func NewEngine(store repository.RequestStore, emitter ws.Emitter, notifier Notifier, timeout time.Duration, log *zap.SugaredLogger) *Engine {
	return &Engine{
		store:    store,
		emitter:  emitter,
		notifier: notifier,
		log:      log,
		timeout:  timeout,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create inserts a new request owned by the actor. Status is forced to
// Pending regardless of input.
func (e *Engine) Create(ctx context.Context, actor models.Identity, in CreateInput) (*models.MeetingRequest, error) {
	if strings.TrimSpace(in.Description) == "" {
		return nil, apperr.Validation("description must not be empty")
	}
	if in.AssigneeID == "" {
		return nil, apperr.Validation("assignee is required")
	}

	now := e.now()
	r := &models.MeetingRequest{
		ID:            uuid.New().String(),
		RequesterID:   actor.UserID,
		AssigneeID:    in.AssigneeID,
		IssueCategory: in.IssueCategory,
		Description:   in.Description,
		Attachments:   in.Attachments,
		PreferredDate: in.PreferredDate,
		PreferredTime: in.PreferredTime,
		Status:        models.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	cctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	if err := e.store.Insert(cctx, r); err != nil {
		return nil, timeoutErr(err)
	}

	e.log.Infow("request created", "id", r.ID, "requester", r.RequesterID, "assignee", r.AssigneeID)
	e.fanOut(r, models.EventRequestCreated)
	return r, nil
}

// Transition applies one state change and emits request_updated to both
// parties. A concurrent writer that loses the updatedAt race gets
// ErrConflictingTransition and the record is left as the winner wrote it.
func (e *Engine) Transition(ctx context.Context, actor models.Identity, id string, in TransitionInput) (*models.MeetingRequest, error) {
	cctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	cur, err := e.store.Get(cctx, id)
	if err != nil {
		return nil, timeoutErr(err)
	}
	if actor.UserID != cur.RequesterID && actor.UserID != cur.AssigneeID {
		return nil, apperr.ErrUnauthorized
	}

	next, err := apply(actor, cur, in)
	if err != nil {
		return nil, err
	}

	next.UpdatedAt = e.now()
	if !next.UpdatedAt.After(cur.UpdatedAt) {
		next.UpdatedAt = cur.UpdatedAt.Add(time.Millisecond)
	}

	if err := e.store.Update(cctx, next, cur.UpdatedAt); err != nil {
		return nil, timeoutErr(err)
	}

	e.log.Infow("request transitioned", "id", id, "from", cur.Status, "to", next.Status)
	e.fanOut(next, models.EventRequestUpdated)
	e.notify(next)
	return next, nil
}

// BulkAccept applies the accept transition to each id independently.
// One failing id never aborts the batch; the caller gets one outcome
// per id in input order.
func (e *Engine) BulkAccept(ctx context.Context, actor models.Identity, ids []string) []Outcome {
	out := make([]Outcome, 0, len(ids))
	for _, id := range ids {
		_, err := e.Transition(ctx, actor, id, TransitionInput{To: models.StatusAccepted})
		out = append(out, Outcome{ID: id, Err: err})
	}
	return out
}

func (e *Engine) Get(ctx context.Context, actor models.Identity, id string) (*models.MeetingRequest, error) {
	cctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	r, err := e.store.Get(cctx, id)
	if err != nil {
		return nil, timeoutErr(err)
	}
	if actor.UserID != r.RequesterID && actor.UserID != r.AssigneeID {
		return nil, apperr.ErrUnauthorized
	}
	return r, nil
}

// List returns the actor's requests, newest first, optionally filtered
// by status.
func (e *Engine) List(ctx context.Context, actor models.Identity, status models.Status) ([]*models.MeetingRequest, error) {
	cctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	rs, err := e.store.ListByParty(cctx, actor.UserID, status)
	if err != nil {
		return nil, timeoutErr(err)
	}
	return rs, nil
}

func (e *Engine) fanOut(r *models.MeetingRequest, event string) {
	e.emitter.Emit(r.RequesterID, event, r)
	e.emitter.Emit(r.AssigneeID, event, r)
}

// notify hands the committed record to the notification pipeline. It is
// off the critical path: fired on its own goroutine with a fresh
// context so a dead broker never stalls the caller.
func (e *Engine) notify(r *models.MeetingRequest) {
	if e.notifier == nil {
		return
	}
	switch r.Status {
	case models.StatusScheduled, models.StatusRescheduled, models.StatusRejected, models.StatusCompleted:
		go e.notifier.LifecycleEvent(context.Background(), r)
	}
}

func timeoutErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.ErrTimeout
	}
	return err
}
