package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"lifesavers-united/internal/domain"
	"lifesavers-united/internal/middleware"
	"lifesavers-united/internal/service/reconcile"
	"lifesavers-united/internal/service/request"
)

type RequestHandler struct {
	reconcileService reconcile.Service
	requestService   request.Service
}

func NewRequestHandler(reconcileService reconcile.Service, requestService request.Service) *RequestHandler {
	return &RequestHandler{
		reconcileService: reconcileService,
		requestService:   requestService,
	}
}

// Submit handles authenticated intake, e.g. a volunteer entering a request
// received over the phone. Provenance is taken from the logged-in user.
func (h *RequestHandler) Submit(c *fiber.Ctx) error {
	var submission domain.Submission
	if err := c.BodyParser(&submission); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	user := middleware.GetCurrentUser(c)
	submission.Source = domain.SourceWebForm
	submission.SubmittedBy = user.FullName
	submission.SubmittedByUID = user.ID.String()

	outcome, err := h.reconcileService.Submit(c.Context(), submission)
	if err != nil {
		if errors.Is(err, reconcile.ErrSubmissionInFlight) {
			return middleware.TooManyRequests(err.Error())
		}
		return err
	}

	return c.Status(outcomeStatus(outcome)).JSON(outcome)
}

func (h *RequestHandler) List(c *fiber.Ctx) error {
	params := paginationFromQuery(c)

	result, err := h.requestService.ListAll(c.Context(), params)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

func (h *RequestHandler) Get(c *fiber.Ctx) error {
	req, err := h.requestService.GetByID(c.Context(), c.Params("requestId"))
	if err != nil {
		if errors.Is(err, request.ErrRequestNotFound) {
			return middleware.NotFound("Request not found")
		}
		return err
	}
	return c.JSON(fiber.Map{"request": req})
}

func (h *RequestHandler) History(c *fiber.Ctx) error {
	entries, err := h.requestService.History(c.Context(), c.Params("requestId"))
	if err != nil {
		if errors.Is(err, request.ErrRequestNotFound) {
			return middleware.NotFound("Request not found")
		}
		return err
	}
	return c.JSON(fiber.Map{"history": entries})
}

func (h *RequestHandler) Verify(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)

	outcome, err := h.requestService.Verify(c.Context(), c.Params("requestId"), user)
	if err != nil {
		if errors.Is(err, request.ErrRequestNotFound) {
			return middleware.NotFound("Request not found")
		}
		return err
	}
	return c.JSON(outcome)
}

func (h *RequestHandler) Close(c *fiber.Ctx) error {
	var input domain.CloseRequestInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	user := middleware.GetCurrentUser(c)

	outcome, err := h.requestService.Close(c.Context(), c.Params("requestId"), input, user)
	if err != nil {
		if errors.Is(err, request.ErrRequestNotFound) {
			return middleware.NotFound("Request not found")
		}
		return err
	}
	return c.JSON(outcome)
}

// outcomeStatus maps a reconciliation outcome onto an HTTP status. Rejected
// duplicates are conflicts, validation failures are unprocessable, and a
// fresh creation is 201.
func outcomeStatus(outcome *domain.ReconcileOutcome) int {
	switch {
	case outcome.Code == domain.CodeValidationError:
		return fiber.StatusUnprocessableEntity
	case outcome.Action == domain.ActionRejectedDuplicate:
		return fiber.StatusConflict
	case outcome.Action == domain.ActionCreated:
		return fiber.StatusCreated
	default:
		return fiber.StatusOK
	}
}

func paginationFromQuery(c *fiber.Ctx) domain.PaginationParams {
	params := domain.PaginationParams{
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("page_size", 20),
	}
	params.Validate()
	return params
}
