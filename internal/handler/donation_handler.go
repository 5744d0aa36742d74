package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"lifesavers-united/internal/domain"
	"lifesavers-united/internal/middleware"
	"lifesavers-united/internal/service/donation"
)

type DonationHandler struct {
	donationService donation.Service
}

func NewDonationHandler(donationService donation.Service) *DonationHandler {
	return &DonationHandler{donationService: donationService}
}

func (h *DonationHandler) Record(c *fiber.Ctx) error {
	var input domain.LogDonationInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	user := middleware.GetCurrentUser(c)

	result, err := h.donationService.RecordDonation(c.Context(), c.Params("requestId"), input, user)
	if err != nil {
		switch {
		case errors.Is(err, donation.ErrRequestNotFound):
			return middleware.NotFound("Request not found")
		case errors.Is(err, donation.ErrRequestClosed):
			return middleware.Conflict("Request is already closed")
		case errors.Is(err, donation.ErrExceedsRemaining):
			return middleware.Conflict(err.Error())
		case errors.Is(err, donation.ErrInvalidInput):
			return middleware.BadRequest(err.Error())
		}
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}

func (h *DonationHandler) List(c *fiber.Ctx) error {
	logs, err := h.donationService.ListByRequest(c.Context(), c.Params("requestId"))
	if err != nil {
		if errors.Is(err, donation.ErrRequestNotFound) {
			return middleware.NotFound("Request not found")
		}
		return err
	}
	return c.JSON(fiber.Map{"donations": logs})
}
