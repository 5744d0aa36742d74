package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"lifesavers-united/internal/domain"
	"lifesavers-united/internal/middleware"
	"lifesavers-united/internal/service/donor"
)

type DonorHandler struct {
	donorService donor.Service
}

func NewDonorHandler(donorService donor.Service) *DonorHandler {
	return &DonorHandler{donorService: donorService}
}

func (h *DonorHandler) Register(c *fiber.Ctx) error {
	var input domain.RegisterDonorInput
	if err := c.BodyParser(&input); err != nil {
		return middleware.BadRequest("Invalid request body")
	}

	registered, err := h.donorService.Register(c.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, donor.ErrAlreadyActive):
			return middleware.Conflict("An active donor is already registered with this contact number")
		case errors.Is(err, donor.ErrMissingFields),
			errors.Is(err, donor.ErrNotEligible),
			errors.Is(err, donor.ErrInvalidContact):
			return middleware.BadRequest(err.Error())
		}
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"donor":   registered,
		"message": "Thank you for registering as a donor.",
	})
}

func (h *DonorHandler) Get(c *fiber.Ctx) error {
	found, err := h.donorService.GetByID(c.Context(), c.Params("donorId"))
	if err != nil {
		if errors.Is(err, donor.ErrDonorNotFound) {
			return middleware.NotFound("Donor not found")
		}
		return err
	}
	return c.JSON(fiber.Map{"donor": found})
}

// FindCompatible lists active donors able to serve a patient blood group.
// Coordinator tooling uses this to build call lists.
func (h *DonorHandler) FindCompatible(c *fiber.Ctx) error {
	bloodGroup := c.Query("blood_group")
	if bloodGroup == "" {
		return middleware.BadRequest("blood_group query parameter is required")
	}

	donors, err := h.donorService.FindCompatible(c.Context(), bloodGroup)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"donors": donors})
}
