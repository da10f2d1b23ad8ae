package httpapi

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/i474232898/city-forecast/internal/forecast"
	"github.com/i474232898/city-forecast/internal/store"
)

const (
	serviceName  = "city-forecast"
	requestIDKey = "requestid"
)

var validate = validator.New()

// Aggregator resolves a city and returns every candidate with its forecast.
type Aggregator interface {
	CityForecasts(ctx context.Context, city string) ([]forecast.EnrichedCity, error)
}

// ProbeReader exposes the background probe history.
type ProbeReader interface {
	Latest(city string) (store.ProbeResult, error)
	History(city string) ([]store.ProbeResult, error)
	LatestAll() []store.ProbeResult
}

// Upstream reports the circuit breaker state of an outbound dependency.
type Upstream interface {
	Name() string
	State() string
}

// NewApp builds the Fiber app with the shared middleware and error handler.
// Access log lines go to accessLog; nil keeps fiber's default stdout writer.
func NewApp(readTimeout, writeTimeout time.Duration, accessLog io.Writer) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		DisableStartupMessage: true,
		ReadTimeout:           readTimeout,
		WriteTimeout:          writeTimeout,
		ErrorHandler:          ErrorHandler,
	})

	// Global middleware
	app.Use(requestid.New(requestid.Config{
		Generator:  uuid.NewString,
		ContextKey: requestIDKey,
	}))
	accessCfg := logger.Config{
		Format: "${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
	}
	if accessLog != nil {
		accessCfg.Output = accessLog
	}
	app.Use(logger.New(accessCfg))
	app.Use(recover.New())

	return app
}

// RegisterRoutes wires the forecast endpoint into the Fiber app. Each lookup,
// upstream calls included, is bounded by timeout; zero means no bound.
func RegisterRoutes(app *fiber.App, service Aggregator, log logrus.FieldLogger, timeout time.Duration) {
	app.Get("/weather", func(c *fiber.Ctx) error {
		q := cityQuery{City: strings.TrimSpace(c.Query("city"))}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, msgCityRequired)
		}

		ctx := c.UserContext()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		cities, err := service.CityForecasts(ctx, q.City)
		if err != nil {
			logLookupFailure(log.WithField("request_id", c.Locals(requestIDKey)), q.City, err)
			return fiber.NewError(fiber.StatusInternalServerError, msgInternal)
		}
		if len(cities) == 0 {
			return fiber.NewError(fiber.StatusNotFound, msgCityNotFound)
		}

		return c.JSON(cities)
	})
}

// RegisterHealthRoutes exposes liveness and upstream health.
func RegisterHealthRoutes(app *fiber.App, probes ProbeReader, upstreams ...Upstream) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": serviceName,
		})
	})

	app.Get("/health/upstreams", func(c *fiber.Ctx) error {
		status := "ok"

		states := make([]fiber.Map, 0, len(upstreams))
		for _, u := range upstreams {
			state := u.State()
			if state == "open" || state == "half-open" {
				status = "degraded"
			}
			states = append(states, fiber.Map{"name": u.Name(), "state": state})
		}

		latest := probes.LatestAll()
		for _, p := range latest {
			if !p.OK() {
				status = "degraded"
			}
		}

		return c.JSON(fiber.Map{
			"status":    status,
			"upstreams": states,
			"probes":    latest,
		})
	})

	app.Get("/health/probes/:city", func(c *fiber.Ctx) error {
		city := strings.TrimSpace(c.Params("city"))
		history, err := probes.History(city)
		if err != nil {
			return probeLookupError(err)
		}
		return c.JSON(fiber.Map{
			"city":    city,
			"results": history,
		})
	})

	app.Get("/health/probes/:city/latest", func(c *fiber.Ctx) error {
		latest, err := probes.Latest(strings.TrimSpace(c.Params("city")))
		if err != nil {
			return probeLookupError(err)
		}
		return c.JSON(latest)
	})
}

func probeLookupError(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "no probe results for requested city")
	}
	return fiber.NewError(fiber.StatusInternalServerError, "failed to read probe results")
}

// cityQuery holds the query parameters of the forecast endpoint.
type cityQuery struct {
	City string `validate:"required"`
}
