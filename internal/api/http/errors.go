package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/i474232898/city-forecast/internal/upstream"
)

const (
	msgCityRequired = "City name is required"
	msgCityNotFound = "City not found"
	msgInternal     = "An error occurred, please try again later."
)

// ErrorHandler renders every error as {"error": message}. Only *fiber.Error
// messages reach the client; anything else becomes the generic 500 message.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := msgInternal

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		if code < fiber.StatusInternalServerError {
			message = e.Message
		}
	}

	return c.Status(code).JSON(fiber.Map{"error": message})
}

// logLookupFailure records why a lookup failed. The cause is never sent to the client.
func logLookupFailure(log logrus.FieldLogger, city string, err error) {
	entry := log.WithFields(logrus.Fields{"city": city, "error": err})

	var upErr *upstream.Error
	switch {
	case errors.As(err, &upErr) && upErr.HasStatus():
		entry.WithField("upstream", upErr.Upstream).Errorf("HTTP error occurred for city %q", city)
	case errors.As(err, &upErr):
		entry.WithField("upstream", upErr.Upstream).Errorf("Request error occurred for city %q", city)
	default:
		entry.Errorf("An unexpected error occurred for city %q", city)
	}
}
