package handlers

import (
	"time"

	"github.com/finsim/finsim/internal/models"
	"github.com/gofiber/fiber/v2"
)

// Health reports liveness; it never touches the store
func (h *Handler) Health(c *fiber.Ctx) error {
	now := time.Now()
	return c.JSON(models.HealthResponse{
		Status:        "healthy",
		Timestamp:     now.Format(time.RFC3339),
		Version:       Version,
		UptimeSeconds: int64(now.Sub(h.startedAt).Seconds()),
	})
}

// NotFound is mounted last and answers every unmatched route
func (h *Handler) NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).
		JSON(models.NewErrorResponse("NOT_FOUND", "Route not found", c.Path(), nil))
}
