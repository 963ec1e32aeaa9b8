package api

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"norwegianopen/internal/pricing"
	"norwegianopen/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Health reports whether the database answers.
func (h *Handler) Health(c *fiber.Ctx) error {
	if err := h.repo.HealthCheck(c.UserContext()); err != nil {
		h.logger.ErrorContext(c.UserContext(), "Database health check failed", "error", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status": "unhealthy",
			"error":  "database connection failed",
		})
	}

	return c.JSON(fiber.Map{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   h.version,
	})
}

func (h *Handler) Register(c *fiber.Ctx) error {
	var in service.RegistrationInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid request body")
	}

	registration, err := h.services.Registrations.Submit(c.UserContext(), in)
	if err != nil {
		return h.fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":      "Registration received. Check your inbox for the confirmation email.",
		"user_id":      registration.UserID,
		"registration": registration,
	})
}

func (h *Handler) RegisterHotel(c *fiber.Ctx) error {
	var in service.HotelBookingInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid request body")
	}

	booking, err := h.services.Hotels.Submit(c.UserContext(), in)
	if err != nil {
		return h.fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Hotel booking received.",
		"booking": booking,
	})
}

func (h *Handler) JoinMailList(c *fiber.Ctx) error {
	var body struct {
		Email string `json:"email" form:"email"`
	}
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "Invalid request body")
	}

	created, err := h.services.Mail.JoinMailList(c.UserContext(), body.Email)
	if err != nil {
		return h.fail(c, err)
	}

	if !created {
		return c.JSON(fiber.Map{"message": "You are already on the mailing list."})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Thank you for joining the mailing list."})
}

func (h *Handler) Contact(c *fiber.Ctx) error {
	var in service.ContactInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if err := h.services.Mail.Contact(c.UserContext(), in); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Thank you for your message. We will get back to you soon."})
}

// Participant shows a registration and the hotel booking made with the same email.
func (h *Handler) Participant(c *fiber.Ctx) error {
	participant, err := h.services.Registrations.Participant(c.UserContext(), c.Params("userID"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(participant)
}

func (h *Handler) PriceList(c *fiber.Ctx) error {
	return c.JSON(h.services.Registrations.PriceList())
}

// Quote prices a selection. The region falls back to the one of the country.
func (h *Handler) Quote(c *fiber.Ctx) error {
	level := pricing.Level(c.Query("level"))
	option := pricing.PassOption(c.Query("pass_option"))
	if level == "" || option == "" {
		return badRequest(c, "level and pass_option are required")
	}

	region, ok := pricing.ParseRegion(c.Query("region"))
	if !ok {
		region = pricing.RegionForCountry(c.Query("country"))
	}

	addedIntensive, _ := strconv.ParseBool(c.Query("added_intensive", "false"))

	quote, err := h.services.Registrations.Quote(level, option, region, addedIntensive)
	if err != nil {
		if errors.Is(err, pricing.ErrInvalidPassOption) {
			return badRequest(c, fmt.Sprintf("Selected pass option '%s' is not valid for level '%s'.", option, level))
		}
		return badRequest(c, "Invalid pricing selection")
	}
	return c.JSON(quote)
}
