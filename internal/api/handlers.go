package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/campusdesk/portal/internal/apperr"
	"github.com/campusdesk/portal/internal/lifecycle"
	"github.com/campusdesk/portal/internal/messaging"
	"github.com/campusdesk/portal/internal/models"
)

func (s *Server) createRequest(c *fiber.Ctx) error {
	var in lifecycle.CreateInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	r, err := s.engine.Create(c.Context(), callerIdentity(c), in)
	if err != nil {
		return errStatus(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(r)
}

func (s *Server) listRequests(c *fiber.Ctx) error {
	status := models.Status(c.Query("status"))
	rs, err := s.engine.List(c.Context(), callerIdentity(c), status)
	if err != nil {
		return errStatus(c, err)
	}
	if rs == nil {
		rs = []*models.MeetingRequest{}
	}
	return c.JSON(fiber.Map{"requests": rs})
}

func (s *Server) getRequest(c *fiber.Ctx) error {
	r, err := s.engine.Get(c.Context(), callerIdentity(c), c.Params("id"))
	if err != nil {
		return errStatus(c, err)
	}
	return c.JSON(r)
}

func (s *Server) transitionRequest(c *fiber.Ctx) error {
	var in lifecycle.TransitionInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	r, err := s.engine.Transition(c.Context(), callerIdentity(c), c.Params("id"), in)
	if err != nil {
		return errStatus(c, err)
	}
	return c.JSON(r)
}

type bulkAcceptReq struct {
	IDs []string `json:"ids"`
}

type bulkOutcome struct {
	ID       string `json:"id"`
	Accepted bool   `json:"accepted"`
	Error    string `json:"error,omitempty"`
}

func (s *Server) bulkAccept(c *fiber.Ctx) error {
	var req bulkAcceptReq
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	outcomes := s.engine.BulkAccept(c.Context(), callerIdentity(c), req.IDs)
	out := make([]bulkOutcome, 0, len(outcomes))
	for _, o := range outcomes {
		bo := bulkOutcome{ID: o.ID, Accepted: o.Err == nil}
		if o.Err != nil {
			bo.Error = o.Err.Error()
		}
		out = append(out, bo)
	}
	return c.JSON(fiber.Map{"outcomes": out})
}

func (s *Server) sendMessage(c *fiber.Ctx) error {
	var in messaging.SendInput
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
	}
	m, err := s.messages.Send(c.Context(), callerIdentity(c), in)
	if err != nil {
		return errStatus(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(m)
}

func (s *Server) markRead(c *fiber.Ctx) error {
	if err := s.messages.MarkRead(c.Context(), callerIdentity(c), c.Params("contact_id")); err != nil {
		return errStatus(c, err)
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) listSessions(c *fiber.Ctx) error {
	sessions, err := s.messages.Sessions(c.Context(), callerIdentity(c))
	if err != nil {
		return errStatus(c, err)
	}
	if sessions == nil {
		sessions = []models.ConversationSession{}
	}
	return c.JSON(fiber.Map{"sessions": sessions})
}

func (s *Server) listThread(c *fiber.Ctx) error {
	msgs, err := s.messages.Thread(c.Context(), callerIdentity(c), c.Params("contact_id"))
	if err != nil {
		return errStatus(c, err)
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	return c.JSON(fiber.Map{"messages": msgs})
}

// errStatus maps the error taxonomy onto HTTP codes so the UI can tell
// "rejected" from "timed out" from "stale".
func errStatus(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	case errors.Is(err, apperr.ErrUnauthorized):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
	case errors.Is(err, apperr.ErrConflictingTransition):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "conflicting transition"})
	case errors.Is(err, apperr.ErrTimeout):
		return c.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{"error": "timed out, retry"})
	case errors.Is(err, apperr.ErrInvalidTransition), errors.Is(err, apperr.ErrEmptyMessage), errors.Is(err, apperr.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
}
