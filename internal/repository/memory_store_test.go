package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusdesk/portal/internal/apperr"
	"github.com/campusdesk/portal/internal/models"
)

func pendingReq(id string, createdAt time.Time) *models.MeetingRequest {
	return &models.MeetingRequest{
		ID:          id,
		RequesterID: "S1",
		AssigneeID:  "F1",
		Description: "test request",
		Status:      models.StatusPending,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
}

func TestUpdateCASRejectsStaleWriter(t *testing.T) {
	s := NewMemoryStore()
	t0 := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	require.NoError(t, s.Insert(context.Background(), pendingReq("r1", t0)))

	winner := pendingReq("r1", t0)
	winner.Status = models.StatusAccepted
	winner.UpdatedAt = t0.Add(time.Millisecond)
	require.NoError(t, s.Update(context.Background(), winner, t0))

	loser := pendingReq("r1", t0)
	loser.Status = models.StatusRejected
	loser.UpdatedAt = t0.Add(2 * time.Millisecond)
	err := s.Update(context.Background(), loser, t0)
	assert.ErrorIs(t, err, apperr.ErrConflictingTransition)

	got, err := s.Get(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, got.Status)
}

func TestUpdateUnknownID(t *testing.T) {
	s := NewMemoryStore()
	err := s.Update(context.Background(), pendingReq("nope", time.Now()), time.Now())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	_, err = s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestGetReturnsCopy(t *testing.T) {
	s := NewMemoryStore()
	t0 := time.Now().UTC()
	require.NoError(t, s.Insert(context.Background(), pendingReq("r1", t0)))

	got, err := s.Get(context.Background(), "r1")
	require.NoError(t, err)
	got.Status = models.StatusCompleted

	again, err := s.Get(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, again.Status)
}

func TestListByParty(t *testing.T) {
	s := NewMemoryStore()
	t0 := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)

	older := pendingReq("r1", t0)
	newer := pendingReq("r2", t0.Add(time.Hour))
	newer.Status = models.StatusAccepted
	foreign := pendingReq("r3", t0)
	foreign.RequesterID, foreign.AssigneeID = "X1", "X2"

	for _, r := range []*models.MeetingRequest{older, newer, foreign} {
		require.NoError(t, s.Insert(context.Background(), r))
	}

	all, err := s.ListByParty(context.Background(), "S1", "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "r2", all[0].ID, "newest first")

	accepted, err := s.ListByParty(context.Background(), "F1", models.StatusAccepted)
	require.NoError(t, err)
	require.Len(t, accepted, 1)
	assert.Equal(t, "r2", accepted[0].ID)
}

func TestLogIsAppendOnly(t *testing.T) {
	s := NewMemoryStore()
	t0 := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)

	for i, txt := range []string{"one", "two", "three"} {
		require.NoError(t, s.Append(context.Background(), &models.Message{
			ID: txt, SenderID: "S1", ReceiverID: "F1",
			Text: txt, Timestamp: t0.Add(time.Duration(i) * time.Second),
		}))
	}

	first, err := s.ForUser(context.Background(), "S1")
	require.NoError(t, err)
	second, err := s.ForUser(context.Background(), "S1")
	require.NoError(t, err)
	assert.Equal(t, first, second, "reads with no intervening append are identical")

	// markRead flips only the read flag, nothing else
	n, err := s.MarkRead(context.Background(), "F1", "S1")
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	third, err := s.ForUser(context.Background(), "S1")
	require.NoError(t, err)
	for i := range third {
		assert.True(t, third[i].IsRead)
		third[i].IsRead = first[i].IsRead
	}
	assert.Equal(t, first, third)
}

func TestMarkReadScope(t *testing.T) {
	s := NewMemoryStore()
	now := time.Now().UTC()
	msgs := []*models.Message{
		{ID: "1", SenderID: "F1", ReceiverID: "S1", Text: "a", Timestamp: now},
		{ID: "2", SenderID: "F2", ReceiverID: "S1", Text: "b", Timestamp: now},
		{ID: "3", SenderID: "S1", ReceiverID: "F1", Text: "c", Timestamp: now},
	}
	for _, m := range msgs {
		require.NoError(t, s.Append(context.Background(), m))
	}

	n, err := s.MarkRead(context.Background(), "S1", "F1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	all, _ := s.ForUser(context.Background(), "S1")
	for _, m := range all {
		switch m.ID {
		case "1":
			assert.True(t, m.IsRead)
		default:
			assert.False(t, m.IsRead)
		}
	}
}

func TestThread(t *testing.T) {
	s := NewMemoryStore()
	now := time.Now().UTC()
	for _, m := range []*models.Message{
		{ID: "1", SenderID: "S1", ReceiverID: "F1", Text: "to f1", Timestamp: now},
		{ID: "2", SenderID: "F1", ReceiverID: "S1", Text: "back", Timestamp: now.Add(time.Second)},
		{ID: "3", SenderID: "S1", ReceiverID: "F2", Text: "other thread", Timestamp: now},
	} {
		require.NoError(t, s.Append(context.Background(), m))
	}

	thread, err := s.Thread(context.Background(), "S1", "F1")
	require.NoError(t, err)
	require.Len(t, thread, 2)
	assert.Equal(t, "1", thread[0].ID)
	assert.Equal(t, "2", thread[1].ID)
}
