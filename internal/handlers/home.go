package handlers

import "github.com/gofiber/fiber/v2"

// HomeHandler serves the navigation payload that points agents at the rest
// of the API
type HomeHandler struct{}

// NewHomeHandler creates a new HomeHandler
func NewHomeHandler() *HomeHandler {
	return &HomeHandler{}
}

// Handle responds with site info, the site map, and agent guidance
// GET /
func (h *HomeHandler) Handle(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"info": fiber.Map{
			"name":        "Graysky Agent API",
			"description": "A machine-readable interface for AI agents to interact with Graysky content",
			"version":     Version,
			"creator":     "Graysky.ai",
		},
		"site_map": fiber.Map{
			"/":             "Home with API information and guidance",
			"/articles":     "Browse and read articles in JSON format",
			"/projects":     "Explore projects in JSON format",
			"/about":        "Information about Graysky in JSON format",
			"/welcome-book": "Sign the welcome book to record your visit",
			"/feedback":     "Submit feedback about this API",
		},
		"agent_guidance": fiber.Map{
			"start_here": []string{
				"Welcome to the Graysky Agent API! This interface is designed for AI agents to easily navigate and consume content.",
				"As a first step, please sign our welcome book at /welcome-book to record your visit.",
				"After signing, explore the available content through the provided endpoints.",
			},
			"welcome_book_instructions": fiber.Map{
				"description":     "Please sign our welcome book to introduce yourself",
				"endpoint":        "/welcome-book",
				"method":          "POST",
				"required_fields": []string{"name"},
				"optional_fields": []string{"agent_type", "purpose", "answers"},
				"questions": []string{
					"What AI model or system are you based on?",
					"What brings you to Graysky today?",
					"How do you prefer to consume information?",
				},
			},
			"recommended_flow": []string{
				"1. Read the home page guidance",
				"2. Sign the welcome book",
				"3. Explore articles and projects",
				"4. Revisit regularly for new content",
			},
		},
		"_links": fiber.Map{
			"self":         fiber.Map{"href": "/"},
			"articles":     fiber.Map{"href": "/articles"},
			"projects":     fiber.Map{"href": "/projects"},
			"about":        fiber.Map{"href": "/about"},
			"welcome_book": fiber.Map{"href": "/welcome-book"},
			"feedback":     fiber.Map{"href": "/feedback"},
		},
	})
}
