package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"graysky/internal/models"
	"graysky/internal/services"
)

// WelcomeBookHandler handles welcome-book HTTP requests
type WelcomeBookHandler struct {
	visitorService *services.VisitorService
}

// NewWelcomeBookHandler creates a new WelcomeBookHandler
func NewWelcomeBookHandler(visitorService *services.VisitorService) *WelcomeBookHandler {
	return &WelcomeBookHandler{visitorService: visitorService}
}

// List returns recent visitors
// GET /welcome-book
func (h *WelcomeBookHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 10)

	visitors, err := h.visitorService.ListVisitors(c.Context(), limit)
	if err != nil {
		slog.Error("failed to retrieve visitors", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retrieve visitors",
		})
	}

	return c.JSON(visitors)
}

// Sign records a visit
// POST /welcome-book
func (h *WelcomeBookHandler) Sign(c *fiber.Ctx) error {
	var req models.VisitorCreate
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	visitor, err := h.visitorService.RegisterVisit(c.Context(), &req)
	if err != nil {
		if services.IsValidationError(err) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		if errors.Is(err, services.ErrRateLimited) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Rate limit exceeded. Please wait at least one hour between visits.",
			})
		}
		// Storage faults are logged with their cause but never leaked.
		slog.Error("failed to add visitor", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to add visitor to welcome book",
		})
	}

	return c.JSON(visitor)
}
