package middleware

import (
	"errors"

	"github.com/finsim/finsim/internal/logging"
	"github.com/finsim/finsim/internal/models"
	"github.com/gofiber/fiber/v2"
)

// ErrorHandler renders errors that escaped the handlers. fiber errors keep
// their status; everything else is a 500 with the message hidden.
func ErrorHandler(logger *logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		code := "INTERNAL_ERROR"
		message := "Internal Server Error"

		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
			code = "ERROR"
			message = fe.Message
		}

		log := logger.WithContext(c.UserContext())
		if status >= fiber.StatusInternalServerError {
			log.Error("Request error",
				"path", c.Path(),
				"method", c.Method(),
				"status", status,
				"error", err)
		} else {
			log.Debug("Request rejected",
				"path", c.Path(),
				"status", status,
				"error", err)
		}

		return c.Status(status).JSON(models.NewErrorResponse(code, message, c.Path(), nil))
	}
}
