package handlers

import (
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"graysky/internal/services"
)

// ContentHandler serves articles and projects parsed from markdown content
type ContentHandler struct {
	contentService *services.ContentService
}

// NewContentHandler creates a new ContentHandler
func NewContentHandler(contentService *services.ContentService) *ContentHandler {
	return &ContentHandler{contentService: contentService}
}

// ListArticles returns articles, optionally filtered by category
// GET /articles
func (h *ContentHandler) ListArticles(c *fiber.Ctx) error {
	category := c.Query("category")
	limit := c.QueryInt("limit", 10)

	articles, err := h.contentService.GetArticles(category, limit)
	if err != nil {
		slog.Error("failed to list articles", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retrieve articles",
		})
	}

	return c.JSON(articles)
}

// GetArticle returns a single article by slug
// GET /articles/:slug
func (h *ContentHandler) GetArticle(c *fiber.Ctx) error {
	slug := c.Params("slug")

	article, err := h.contentService.GetArticle(slug)
	if err != nil {
		slog.Error("failed to get article", "slug", slug, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retrieve article",
		})
	}
	if article == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": fmt.Sprintf("Article with slug '%s' not found", slug),
		})
	}

	return c.JSON(article)
}

// ListProjects returns projects
// GET /projects
func (h *ContentHandler) ListProjects(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 10)

	projects, err := h.contentService.GetProjects(limit)
	if err != nil {
		slog.Error("failed to list projects", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retrieve projects",
		})
	}

	return c.JSON(projects)
}

// GetProject returns a single project by slug
// GET /projects/:slug
func (h *ContentHandler) GetProject(c *fiber.Ctx) error {
	slug := c.Params("slug")

	project, err := h.contentService.GetProject(slug)
	if err != nil {
		slog.Error("failed to get project", "slug", slug, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retrieve project",
		})
	}
	if project == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": fmt.Sprintf("Project with slug '%s' not found", slug),
		})
	}

	return c.JSON(project)
}
