package lifecycle

import (
	"strings"

	"github.com/campusdesk/portal/internal/apperr"
	"github.com/campusdesk/portal/internal/models"
)

// edges maps a target status to the statuses it may be entered from.
var edges = map[models.Status][]models.Status{
	models.StatusAccepted:    {models.StatusPending},
	models.StatusScheduled:   {models.StatusPending, models.StatusAccepted},
	models.StatusRescheduled: {models.StatusScheduled},
	models.StatusCompleted:   {models.StatusScheduled, models.StatusRescheduled},
	models.StatusRejected:    {models.StatusPending, models.StatusAccepted},
}

func edgeAllowed(from, to models.Status) bool {
	for _, f := range edges[to] {
		if f == from {
			return true
		}
	}
	return false
}

// apply validates the edge, the actor's standing on it, and the fields
// the target status requires, then returns the fully updated copy.
// The input record is never mutated.
func apply(actor models.Identity, cur *models.MeetingRequest, in TransitionInput) (*models.MeetingRequest, error) {
	if !edgeAllowed(cur.Status, in.To) {
		return nil, apperr.InvalidTransition(string(cur.Status), string(in.To), "")
	}

	// Completed may be confirmed by either party; every other edge is
	// the assignee's call.
	if in.To != models.StatusCompleted && actor.UserID != cur.AssigneeID {
		return nil, apperr.ErrUnauthorized
	}

	next := cur.Clone()
	next.Status = in.To

	switch in.To {
	case models.StatusAccepted:
		if in.AssigneeNotes != "" {
			next.AssigneeNotes = in.AssigneeNotes
		}

	case models.StatusScheduled:
		if err := validateSchedule(cur, in, true); err != nil {
			return nil, err
		}
		next.ScheduledDate = in.ScheduledDate
		next.ScheduledTime = in.ScheduledTime
		next.Mode = in.Mode
		next.Location = in.Location

	case models.StatusRescheduled:
		if err := validateSchedule(cur, in, false); err != nil {
			return nil, err
		}
		// prior schedule fields are overwritten, not archived
		next.ScheduledDate = in.ScheduledDate
		next.ScheduledTime = in.ScheduledTime
		if in.Mode != "" {
			next.Mode = in.Mode
		}
		if in.Location != "" {
			next.Location = in.Location
		}

	case models.StatusCompleted:
		// schedule fields carry over untouched

	case models.StatusRejected:
		if strings.TrimSpace(in.RejectionReason) == "" {
			return nil, apperr.InvalidTransition(string(cur.Status), string(in.To), "rejection reason is required")
		}
		next.RejectionReason = in.RejectionReason
		next.ScheduledDate = ""
		next.ScheduledTime = ""
		next.Location = ""
		next.Mode = ""
	}

	return next, nil
}

func validateSchedule(cur *models.MeetingRequest, in TransitionInput, modeRequired bool) error {
	if in.ScheduledDate == "" || in.ScheduledTime == "" {
		return apperr.InvalidTransition(string(cur.Status), string(in.To), "scheduled date and time are required")
	}
	mode := in.Mode
	if mode == "" && !modeRequired {
		mode = cur.Mode
	}
	if modeRequired && mode != models.ModeOnline && mode != models.ModeInPerson {
		return apperr.InvalidTransition(string(cur.Status), string(in.To), "meeting mode is required")
	}
	if mode == models.ModeInPerson && in.Location == "" && cur.Location == "" {
		return apperr.InvalidTransition(string(cur.Status), string(in.To), "location is required for in-person meetings")
	}
	return nil
}
