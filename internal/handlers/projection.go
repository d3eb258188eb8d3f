package handlers

import (
	"github.com/finsim/finsim/internal/models"
	"github.com/finsim/finsim/internal/services"
	"github.com/gofiber/fiber/v2"
)

// Simulate runs a hypothetical projection
// POST /v1/simulate
func (h *Handler) Simulate(c *fiber.Ctx) error {
	var body models.SimulateRequest
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "INVALID_JSON", "Failed to parse JSON body", map[string]interface{}{"error": err.Error()})
	}

	result, err := h.projectionService.Simulate(c.UserContext(), &services.SimulationRequest{
		InitialValue: body.InitialValue,
		Drift:        body.Drift,
		Volatility:   body.Volatility,
		Horizon:      body.Horizon,
		Samples:      body.Samples,
		Seed:         body.Seed,
		IncludeSteps: body.IncludeSteps,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(result)
}

// EstimateInline calibrates drift and volatility from an inline series
// POST /v1/estimate
func (h *Handler) EstimateInline(c *fiber.Ctx) error {
	var body models.EstimateRequest
	if err := c.BodyParser(&body); err != nil {
		return badRequest(c, "INVALID_JSON", "Failed to parse JSON body", map[string]interface{}{"error": err.Error()})
	}

	result, err := h.projectionService.EstimateSeries(body.Series())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(result)
}

// Estimate calibrates drift and volatility from a stored series
// GET /v1/entities/:entity/metrics/:metric/estimate
func (h *Handler) Estimate(c *fiber.Ctx) error {
	result, err := h.projectionService.Estimate(c.UserContext(), c.Params("entity"), c.Params("metric"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(result)
}

// Project calibrates from a stored series and simulates forward
// POST /v1/entities/:entity/metrics/:metric/projection
func (h *Handler) Project(c *fiber.Ctx) error {
	var body models.ProjectionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&body); err != nil {
			return badRequest(c, "INVALID_JSON", "Failed to parse JSON body", map[string]interface{}{"error": err.Error()})
		}
	}

	result, err := h.projectionService.Project(c.UserContext(), &services.ProjectionRequest{
		Entity:       c.Params("entity"),
		Metric:       c.Params("metric"),
		Horizon:      body.Horizon,
		Samples:      body.Samples,
		Seed:         body.Seed,
		Drift:        body.Drift,
		Volatility:   body.Volatility,
		IncludeSteps: body.IncludeSteps,
	})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(result)
}
