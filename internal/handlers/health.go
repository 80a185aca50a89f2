package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"graysky/internal/database"
)

// Version is the API version reported by the home and health endpoints.
const Version = "1.0.0"

// HealthHandler handles health check requests
type HealthHandler struct {
	db        *database.DB // nil when the file backend is in use
	backend   string
	startTime time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *database.DB, backend string) *HealthHandler {
	return &HealthHandler{db: db, backend: backend, startTime: time.Now()}
}

// Handle responds with server health status
// GET /health
func (h *HealthHandler) Handle(c *fiber.Ctx) error {
	status := "healthy"

	dbStatus := fiber.Map{
		"backend": h.backend,
		"status":  "connected",
	}
	if h.db != nil {
		var one int
		if err := h.db.QueryRowContext(c.Context(), "SELECT 1").Scan(&one); err != nil {
			status = "unhealthy"
			dbStatus["status"] = "error"
		}
	}

	code := fiber.StatusOK
	if status != "healthy" {
		code = fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(fiber.Map{
		"status":    status,
		"version":   Version,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(h.startTime).Truncate(time.Second).String(),
		"database":  dbStatus,
	})
}
