package middleware

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/finsim/finsim/internal/config"
	"github.com/finsim/finsim/internal/logging"
	"github.com/finsim/finsim/internal/models"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// apiKey builds a deterministic key of the given length
func apiKey(length int) string {
	key := make([]byte, length)
	for i := range key {
		key[i] = 'a' + byte(i%26)
	}
	return string(key)
}

func newAuthApp(logger *logging.Logger, cfg config.AuthConfig) *fiber.App {
	app := fiber.New()
	app.Use(APIKeyAuth(logger, cfg))
	app.Get("/v1/simulate", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func TestValidateAPIKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want bool
	}{
		{"exactly min length", apiKey(MinAPIKeyLength), true},
		{"longer", apiKey(64), true},
		{"one short", apiKey(MinAPIKeyLength - 1), false},
		{"empty", "", false},
		{"whitespace only", strings.Repeat(" ", MinAPIKeyLength), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateAPIKey(tt.key))
		})
	}
}

func TestAPIKeyAuth_Disabled(t *testing.T) {
	app := newAuthApp(logging.NewNop(), config.AuthConfig{Enabled: false})

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/simulate", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAPIKeyAuth_Headers(t *testing.T) {
	valid := apiKey(40)
	app := newAuthApp(logging.NewNop(), config.AuthConfig{Enabled: true, APIKeys: []string{valid}})

	tests := []struct {
		name   string
		header string
		value  string
		status int
	}{
		{"x-api-key", "X-API-Key", valid, fiber.StatusOK},
		{"bearer", "Authorization", "Bearer " + valid, fiber.StatusOK},
		{"plain authorization", "Authorization", valid, fiber.StatusOK},
		{"wrong key", "X-API-Key", apiKey(41), fiber.StatusUnauthorized},
		{"missing", "", "", fiber.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/v1/simulate", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			if tt.status == fiber.StatusUnauthorized {
				var errResp models.ErrorResponse
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
				assert.Equal(t, "UNAUTHORIZED", errResp.Error.Code)
				assert.Equal(t, "/v1/simulate", errResp.Error.Path)
			}
		})
	}
}

func TestAPIKeyAuth_ShortKeysIgnored(t *testing.T) {
	var buf bytes.Buffer
	short := "too-short"
	app := newAuthApp(logging.NewWithWriter(&buf, zerolog.DebugLevel),
		config.AuthConfig{Enabled: true, APIKeys: []string{short}})

	req := httptest.NewRequest("GET", "/v1/simulate", nil)
	req.Header.Set("X-API-Key", short)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	logs := buf.String()
	assert.Contains(t, logs, "Ignoring short API key")
	assert.Contains(t, logs, "no usable API keys")
	assert.NotContains(t, logs, short)
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "****", maskAPIKey("abc"))
	assert.Equal(t, "abcd****", maskAPIKey(apiKey(32)))
}
