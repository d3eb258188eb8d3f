package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// Risk analyzes the configured factors of an entity
// GET /v1/entities/:entity/risk
func (h *Handler) Risk(c *fiber.Ctx) error {
	report, err := h.analysisService.Risk(c.UserContext(), c.Params("entity"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(report)
}

// Ratios computes financial ratios for one period
// GET /v1/entities/:entity/ratios?period=2023
func (h *Handler) Ratios(c *fiber.Ctx) error {
	period, ok := intQuery(c, "period")
	if !ok {
		return badRequest(c, "INVALID_REQUEST", "period must be an integer", nil)
	}

	ratios, err := h.analysisService.Ratios(c.UserContext(), c.Params("entity"), period)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(ratios)
}

// Trend reports growth over the most recent periods of a metric
// GET /v1/entities/:entity/metrics/:metric/trend?periods=5
func (h *Handler) Trend(c *fiber.Ctx) error {
	periods, ok := intQuery(c, "periods")
	if !ok {
		return badRequest(c, "INVALID_REQUEST", "periods must be an integer", nil)
	}

	report, err := h.analysisService.Trend(c.UserContext(), c.Params("entity"), c.Params("metric"), periods)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(report)
}

// Sector describes a metric across the companies of a sector
// GET /v1/sectors/:sector/metrics/:metric?period=2023
func (h *Handler) Sector(c *fiber.Ctx) error {
	period, ok := intQuery(c, "period")
	if !ok {
		return badRequest(c, "INVALID_REQUEST", "period must be an integer", nil)
	}

	result, err := h.analysisService.Sector(c.UserContext(), c.Params("sector"), c.Params("metric"), period)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(result)
}

// Compare lines up two entities metric by metric
// GET /v1/compare?a=ACME&b=BOLT&period=2023
func (h *Handler) Compare(c *fiber.Ctx) error {
	a, b := c.Query("a"), c.Query("b")
	if a == "" || b == "" {
		return badRequest(c, "INVALID_REQUEST", "both a and b are required", nil)
	}
	period, ok := intQuery(c, "period")
	if !ok {
		return badRequest(c, "INVALID_REQUEST", "period must be an integer", nil)
	}

	result, err := h.analysisService.Compare(c.UserContext(), a, b, period)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(result)
}

// Screen returns the (ticker, period) pairs passing every where condition
// GET /v1/screen?where=revenue>100&where=net_income>=10&period=2023
func (h *Handler) Screen(c *fiber.Ctx) error {
	period, ok := intQuery(c, "period")
	if !ok {
		return badRequest(c, "INVALID_REQUEST", "period must be an integer", nil)
	}

	var conditions []string
	for _, raw := range c.Context().QueryArgs().PeekMulti("where") {
		conditions = append(conditions, string(raw))
	}

	result, err := h.analysisService.Screen(c.UserContext(), conditions, period)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(result)
}

// intQuery parses an optional integer query parameter; absent means 0
func intQuery(c *fiber.Ctx, key string) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
