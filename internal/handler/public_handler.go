package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"lifesavers-united/internal/domain"
	"lifesavers-united/internal/middleware"
	"lifesavers-united/internal/service/reconcile"
	"lifesavers-united/internal/service/request"
	"lifesavers-united/internal/service/stats"
)

// PublicHandler serves the unauthenticated surface: the web intake form, the
// active-request feed, and the landing-page counters.
type PublicHandler struct {
	reconcileService reconcile.Service
	requestService   request.Service
	statsService     stats.Service
}

func NewPublicHandler(reconcileService reconcile.Service, requestService request.Service, statsService stats.Service) *PublicHandler {
	return &PublicHandler{
		reconcileService: reconcileService,
		requestService:   requestService,
		statsService:     statsService,
	}
}

func (h *PublicHandler) SubmitRequest(c *fiber.Ctx) error {
	var submission domain.Submission
	if err := c.BodyParser(&submission); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	submission.Source = domain.SourceWebForm
	if strings.TrimSpace(submission.SubmittedBy) == "" {
		submission.SubmittedBy = strings.TrimSpace(submission.ContactPerson)
	}
	if strings.TrimSpace(submission.SubmittedBy) == "" {
		submission.SubmittedBy = "Web Form"
	}
	submission.SubmittedByUID = ""

	outcome, err := h.reconcileService.Submit(c.Context(), submission)
	if err != nil {
		if errors.Is(err, reconcile.ErrSubmissionInFlight) {
			return middleware.TooManyRequests(err.Error())
		}
		return err
	}

	return c.Status(outcomeStatus(outcome)).JSON(outcome)
}

func (h *PublicHandler) ListRequests(c *fiber.Ctx) error {
	params := paginationFromQuery(c)

	result, err := h.requestService.ListPublic(c.Context(), params)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

func (h *PublicHandler) Stats(c *fiber.Ctx) error {
	overview, err := h.statsService.Overview(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(overview)
}
