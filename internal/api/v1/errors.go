package v1

import (
	"errors"

	fiber "github.com/gofiber/fiber/v2"

	"dva-report-service-golang/internal/logging"
)

// ErrorHandler renders every error as {"error": msg}. Non-fiber errors
// become 500s and are logged.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "internal error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	} else {
		logging.Logger.Errorf("[API] %s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(code).JSON(fiber.Map{"error": msg})
}
