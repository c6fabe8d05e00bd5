package models

import "time"

type AttachmentKind string

const (
	AttachmentImage AttachmentKind = "image"
	AttachmentFile  AttachmentKind = "file"
)

// Attachment is an opaque reference to an uploaded file. The media
// pipeline that produces the locator lives outside this service.
type Attachment struct {
	Name    string         `bson:"name" json:"name"`
	Kind    AttachmentKind `bson:"kind" json:"kind"`
	Size    int64          `bson:"size" json:"size"`
	Locator string         `bson:"locator" json:"locator"`
}

// Message is one entry of the append-only log. After insertion only
// IsRead may change, and only from false to true.
type Message struct {
	ID            string      `bson:"_id" json:"id"`
	SenderID      string      `bson:"sender_id" json:"sender_id"`
	ReceiverID    string      `bson:"receiver_id" json:"receiver_id"`
	Text          string      `bson:"text" json:"text"`
	Attachment    *Attachment `bson:"attachment,omitempty" json:"attachment,omitempty"`
	Timestamp     time.Time   `bson:"timestamp" json:"timestamp"`
	IsRead        bool        `bson:"is_read" json:"is_read"`
	CorrelationID string      `bson:"correlation_id,omitempty" json:"correlation_id,omitempty"`
}

// ConversationSession is derived from the message log for one viewer
// and one contact. It is never stored.
type ConversationSession struct {
	ContactID       string    `json:"contact_id"`
	Messages        []Message `json:"messages"`
	LastMessage     string    `json:"last_message"`
	LastMessageTime time.Time `json:"last_message_time"`
	UnreadCount     int       `json:"unread_count"`
}
