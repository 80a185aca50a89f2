package handlers

import "github.com/gofiber/fiber/v2"

// AboutHandler serves the static about payload
type AboutHandler struct{}

// NewAboutHandler creates a new AboutHandler
func NewAboutHandler() *AboutHandler {
	return &AboutHandler{}
}

// Handle responds with information about the site
// GET /about
func (h *AboutHandler) Handle(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"name":        "Graysky.ai",
		"description": "Graysky specializes in AI agent technology research and implementation.",
		"mission":     "To advance the field of agentic AI systems and provide accessible, understandable resources for developers and AI agents.",
		"contact": fiber.Map{
			"website": "https://graysky.ai",
			"email":   "contact@graysky.ai",
		},
	})
}
