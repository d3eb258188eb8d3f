package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/finsim/finsim/internal/config"
	"github.com/finsim/finsim/internal/logging"
	"github.com/finsim/finsim/internal/models"
	"github.com/gofiber/fiber/v2"
)

// MinAPIKeyLength is the minimum required length for API keys
const MinAPIKeyLength = 32

// APIKeyHeader is checked before the Authorization header
const APIKeyHeader = "X-API-Key"

// ValidateAPIKey reports whether a configured key is long enough to accept
func ValidateAPIKey(key string) bool {
	return len(key) >= MinAPIKeyLength && strings.TrimSpace(key) != ""
}

// APIKeyAuth guards the simulation API with static keys from config.
// Keys shorter than MinAPIKeyLength are ignored with a warning.
func APIKeyAuth(logger *logging.Logger, cfg config.AuthConfig) fiber.Handler {
	if !cfg.Enabled {
		return func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	keys := make([][]byte, 0, len(cfg.APIKeys))
	for _, key := range cfg.APIKeys {
		if key == "" {
			continue
		}
		if !ValidateAPIKey(key) {
			logger.Warn("Ignoring short API key",
				"key_length", len(key),
				"min_required", MinAPIKeyLength,
				"key_prefix", maskAPIKey(key))
			continue
		}
		keys = append(keys, []byte(key))
	}
	if len(keys) == 0 {
		logger.Error("Authentication enabled but no usable API keys configured",
			"configured", len(cfg.APIKeys))
	}

	return func(c *fiber.Ctx) error {
		apiKey := extractAPIKey(c)
		if apiKey == "" {
			logger.Warn("API key missing", "path", c.Path(), "ip", c.IP())
			return unauthorized(c, "API key is required. Provide it via X-API-Key or Authorization header.")
		}

		if !matchesAny(keys, apiKey) {
			logger.Warn("Invalid API key",
				"path", c.Path(),
				"ip", c.IP(),
				"key_prefix", maskAPIKey(apiKey))
			return unauthorized(c, "Invalid API key.")
		}

		return c.Next()
	}
}

// extractAPIKey accepts "X-API-Key: k", "Authorization: Bearer k" or "Authorization: k"
func extractAPIKey(c *fiber.Ctx) string {
	if key := c.Get(APIKeyHeader); key != "" {
		return key
	}
	auth := c.Get(fiber.HeaderAuthorization)
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return token
	}
	return auth
}

func matchesAny(keys [][]byte, candidate string) bool {
	c := []byte(candidate)
	found := 0
	for _, k := range keys {
		found |= subtle.ConstantTimeCompare(k, c)
	}
	return found == 1
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).
		JSON(models.NewErrorResponse("UNAUTHORIZED", message, c.Path(), nil))
}

// maskAPIKey keeps the first 4 characters for logs
func maskAPIKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return key[:4] + "****"
}
