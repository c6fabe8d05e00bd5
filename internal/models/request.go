package models

import "time"

// Status of a meeting request. Pending is the only initial state;
// Completed and Rejected are terminal.
type Status string

const (
	StatusPending     Status = "pending"
	StatusAccepted    Status = "accepted"
	StatusScheduled   Status = "scheduled"
	StatusRescheduled Status = "rescheduled"
	StatusCompleted   Status = "completed"
	StatusRejected    Status = "rejected"
)

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusRejected
}

// Meeting mode. Location is required only for in-person meetings.
type MeetingMode string

const (
	ModeOnline   MeetingMode = "online"
	ModeInPerson MeetingMode = "in-person"
)

type MeetingRequest struct {
	ID            string   `bson:"_id" json:"id"`
	RequesterID   string   `bson:"requester_id" json:"requester_id"`
	AssigneeID    string   `bson:"assignee_id" json:"assignee_id"`
	IssueCategory string   `bson:"issue_category" json:"issue_category"`
	Description   string   `bson:"description" json:"description"`
	Attachments   []string `bson:"attachments,omitempty" json:"attachments,omitempty"`

	PreferredDate string `bson:"preferred_date,omitempty" json:"preferred_date,omitempty"`
	PreferredTime string `bson:"preferred_time,omitempty" json:"preferred_time,omitempty"`

	ScheduledDate string      `bson:"scheduled_date,omitempty" json:"scheduled_date,omitempty"`
	ScheduledTime string      `bson:"scheduled_time,omitempty" json:"scheduled_time,omitempty"`
	Location      string      `bson:"location,omitempty" json:"location,omitempty"`
	Mode          MeetingMode `bson:"mode,omitempty" json:"mode,omitempty"`

	AssigneeNotes   string `bson:"assignee_notes,omitempty" json:"assignee_notes,omitempty"`
	RejectionReason string `bson:"rejection_reason,omitempty" json:"rejection_reason,omitempty"`

	Status    Status    `bson:"status" json:"status"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Clone returns a deep copy so callers can mutate without touching
// the stored record.
func (r *MeetingRequest) Clone() *MeetingRequest {
	cp := *r
	if r.Attachments != nil {
		cp.Attachments = append([]string(nil), r.Attachments...)
	}
	return &cp
}
