package models

// Role of the calling user. Verification happens upstream; the core
// trusts the parsed value verbatim.
type Role string

const (
	RoleStudent Role = "student"
	RoleFaculty Role = "faculty"
	RoleAdmin   Role = "admin"
)

// Identity is supplied per call by the auth boundary.
type Identity struct {
	UserID string `json:"user_id"`
	Name   string `json:"name,omitempty"`
	Role   Role   `json:"role"`
}

// Real-time event names delivered to user rooms.
const (
	EventRequestCreated  = "request_created"
	EventRequestUpdated  = "request_updated"
	EventMessageReceived = "message_received"
)
