package handlers

import (
	"errors"
	"time"

	"github.com/finsim/finsim/internal/logging"
	"github.com/finsim/finsim/internal/models"
	"github.com/finsim/finsim/internal/services"
	"github.com/gofiber/fiber/v2"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// Handler contains all HTTP handlers
type Handler struct {
	logger            *logging.Logger
	projectionService *services.ProjectionService
	analysisService   *services.AnalysisService
	startedAt         time.Time
}

// New creates a new handler instance
func New(logger *logging.Logger, projectionService *services.ProjectionService, analysisService *services.AnalysisService) *Handler {
	return &Handler{
		logger:            logger,
		projectionService: projectionService,
		analysisService:   analysisService,
		startedAt:         time.Now(),
	}
}

// statusForCode maps service error codes to HTTP status codes
func statusForCode(code string) int {
	switch code {
	case services.CodeInvalidParameter, services.CodeEmptyEnsemble:
		return fiber.StatusBadRequest
	case services.CodeNotFound:
		return fiber.StatusNotFound
	case services.CodeInsufficientData:
		return fiber.StatusUnprocessableEntity
	case services.CodeTimeout:
		return fiber.StatusGatewayTimeout
	default:
		return fiber.StatusInternalServerError
	}
}

// fail renders a service error; anything else goes to the app ErrorHandler
func (h *Handler) fail(c *fiber.Ctx, err error) error {
	var svcErr *services.ServiceError
	if !errors.As(err, &svcErr) {
		return err
	}

	status := statusForCode(svcErr.Code)
	if status >= fiber.StatusInternalServerError {
		h.logger.WithContext(c.UserContext()).Error("Request failed",
			"path", c.Path(),
			"code", svcErr.Code,
			"error", err)
	}

	return c.Status(status).
		JSON(models.NewErrorResponse(svcErr.Code, svcErr.Message, c.Path(), svcErr.Details))
}

func badRequest(c *fiber.Ctx, code, message string, details map[string]interface{}) error {
	return c.Status(fiber.StatusBadRequest).
		JSON(models.NewErrorResponse(code, message, c.Path(), details))
}
