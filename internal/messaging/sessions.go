package messaging

import (
	"sort"

	"github.com/campusdesk/portal/internal/models"
)

// BuildSessions partitions the viewer's messages by the other party and
// derives last-message summary and unread count per partition. Pure:
// the same log and viewer always produce identical output. Ordering
// within a partition is ascending timestamp with log order breaking
// ties; sessions are sorted newest conversation first.
func BuildSessions(log []models.Message, viewerID string) []models.ConversationSession {
	byContact := make(map[string][]models.Message)
	var order []string

	for _, m := range log {
		var contact string
		switch viewerID {
		case m.SenderID:
			contact = m.ReceiverID
		case m.ReceiverID:
			contact = m.SenderID
		default:
			continue
		}
		if _, ok := byContact[contact]; !ok {
			order = append(order, contact)
		}
		byContact[contact] = append(byContact[contact], m)
	}

	sessions := make([]models.ConversationSession, 0, len(order))
	for _, contact := range order {
		msgs := byContact[contact]
		sort.SliceStable(msgs, func(i, j int) bool {
			return msgs[i].Timestamp.Before(msgs[j].Timestamp)
		})

		unread := 0
		for _, m := range msgs {
			if m.ReceiverID == viewerID && !m.IsRead {
				unread++
			}
		}

		last := msgs[len(msgs)-1]
		sessions = append(sessions, models.ConversationSession{
			ContactID:       contact,
			Messages:        msgs,
			LastMessage:     last.Text,
			LastMessageTime: last.Timestamp,
			UnreadCount:     unread,
		})
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].LastMessageTime.After(sessions[j].LastMessageTime)
	})
	return sessions
}
