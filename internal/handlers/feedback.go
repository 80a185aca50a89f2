package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"graysky/internal/models"
	"graysky/internal/services"
)

// FeedbackHandler handles feedback HTTP requests
type FeedbackHandler struct {
	feedbackService *services.FeedbackService
}

// NewFeedbackHandler creates a new FeedbackHandler
func NewFeedbackHandler(feedbackService *services.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedbackService: feedbackService}
}

// List returns recent feedback entries
// GET /feedback
func (h *FeedbackHandler) List(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 10)

	entries, err := h.feedbackService.ListFeedback(c.Context(), limit)
	if err != nil {
		slog.Error("failed to retrieve feedback", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retrieve feedback",
		})
	}

	return c.JSON(entries)
}

// Submit records a feedback entry
// POST /feedback
func (h *FeedbackHandler) Submit(c *fiber.Ctx) error {
	var req models.FeedbackCreate
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	entry, err := h.feedbackService.AddFeedback(c.Context(), &req)
	if err != nil {
		if services.IsValidationError(err) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		slog.Error("failed to add feedback", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to submit feedback",
		})
	}

	return c.JSON(entry)
}
