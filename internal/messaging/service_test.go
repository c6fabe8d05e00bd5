package messaging

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusdesk/portal/internal/apperr"
	"github.com/campusdesk/portal/internal/logger"
	"github.com/campusdesk/portal/internal/models"
	"github.com/campusdesk/portal/internal/repository"
)

type recordedEvent struct {
	Room string
	Name string
	Msg  *models.Message
}

type fakeEmitter struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (f *fakeEmitter) Emit(userID, event string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, _ := payload.(*models.Message)
	f.events = append(f.events, recordedEvent{Room: userID, Name: event, Msg: m})
}

var (
	s1 = models.Identity{UserID: "S1", Role: models.RoleStudent}
	f1 = models.Identity{UserID: "F1", Role: models.RoleFaculty}
)

func newTestService(t *testing.T) (*Service, *repository.MemoryStore, *fakeEmitter) {
	t.Helper()
	store := repository.NewMemoryStore()
	em := &fakeEmitter{}
	return NewService(store, em, time.Second, logger.Nop()), store, em
}

func TestSendAssignsServerFields(t *testing.T) {
	svc, store, em := newTestService(t)

	m, err := svc.Send(context.Background(), s1, SendInput{ReceiverID: "F1", Text: "Hi"})
	require.NoError(t, err)
	assert.NotEmpty(t, m.ID)
	assert.False(t, m.Timestamp.IsZero())
	assert.False(t, m.IsRead)

	// event goes to the receiver's room only
	require.Len(t, em.events, 1)
	assert.Equal(t, "F1", em.events[0].Room)
	assert.Equal(t, models.EventMessageReceived, em.events[0].Name)
	assert.Equal(t, m.ID, em.events[0].Msg.ID)

	logged, err := store.ForUser(context.Background(), "S1")
	require.NoError(t, err)
	require.Len(t, logged, 1)
	assert.Equal(t, "Hi", logged[0].Text)
}

func TestSendRejectsEmpty(t *testing.T) {
	svc, _, em := newTestService(t)

	_, err := svc.Send(context.Background(), s1, SendInput{ReceiverID: "F1", Text: "  "})
	assert.ErrorIs(t, err, apperr.ErrEmptyMessage)
	assert.Empty(t, em.events)

	// attachment alone is enough
	_, err = svc.Send(context.Background(), s1, SendInput{
		ReceiverID: "F1",
		Attachment: &models.Attachment{Name: "notes.pdf", Kind: models.AttachmentFile, Size: 1024, Locator: "files/notes.pdf"},
	})
	assert.NoError(t, err)
}

func TestTimestampsMonotonicPerSender(t *testing.T) {
	svc, _, _ := newTestService(t)

	// freeze the clock so every send hits the clamp
	fixed := time.Date(2026, 2, 10, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	var prev time.Time
	for i := 0; i < 5; i++ {
		m, err := svc.Send(context.Background(), s1, SendInput{ReceiverID: "F1", Text: "tick"})
		require.NoError(t, err)
		assert.True(t, m.Timestamp.After(prev))
		prev = m.Timestamp
	}
}

func TestConversationScenario(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Send(context.Background(), s1, SendInput{ReceiverID: "F1", Text: "Hi"})
	require.NoError(t, err)
	_, err = svc.Send(context.Background(), f1, SendInput{ReceiverID: "S1", Text: "Hello"})
	require.NoError(t, err)

	sessions, err := svc.Sessions(context.Background(), s1)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "F1", sessions[0].ContactID)
	assert.Equal(t, "Hello", sessions[0].LastMessage)
	assert.Equal(t, 1, sessions[0].UnreadCount)

	require.NoError(t, svc.MarkRead(context.Background(), s1, "F1"))

	sessions, err = svc.Sessions(context.Background(), s1)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, 0, sessions[0].UnreadCount)
}

func TestMarkReadIdempotentAndScoped(t *testing.T) {
	svc, store, _ := newTestService(t)

	other := models.Identity{UserID: "F2", Role: models.RoleFaculty}
	_, err := svc.Send(context.Background(), f1, SendInput{ReceiverID: "S1", Text: "from F1"})
	require.NoError(t, err)
	_, err = svc.Send(context.Background(), other, SendInput{ReceiverID: "S1", Text: "from F2"})
	require.NoError(t, err)

	require.NoError(t, svc.MarkRead(context.Background(), s1, "F1"))
	require.NoError(t, svc.MarkRead(context.Background(), s1, "F1"))

	n, err := store.MarkRead(context.Background(), "S1", "F1")
	require.NoError(t, err)
	assert.Zero(t, n, "second pass must flip nothing")

	sessions, err := svc.Sessions(context.Background(), s1)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	for _, sess := range sessions {
		switch sess.ContactID {
		case "F1":
			assert.Equal(t, 0, sess.UnreadCount)
		case "F2":
			assert.Equal(t, 1, sess.UnreadCount, "other session must be untouched")
		}
	}
}

func TestThreadOrder(t *testing.T) {
	svc, _, _ := newTestService(t)

	texts := []string{"one", "two", "three"}
	for _, txt := range texts {
		_, err := svc.Send(context.Background(), s1, SendInput{ReceiverID: "F1", Text: txt})
		require.NoError(t, err)
	}

	thread, err := svc.Thread(context.Background(), f1, "S1")
	require.NoError(t, err)
	require.Len(t, thread, 3)
	for i, txt := range texts {
		assert.Equal(t, txt, thread[i].Text)
	}
}
