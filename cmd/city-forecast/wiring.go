package main

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/i474232898/city-forecast/internal/config"
	"github.com/i474232898/city-forecast/internal/forecast"
	"github.com/i474232898/city-forecast/internal/forecast/providers"
	"github.com/i474232898/city-forecast/internal/upstream"
)

// app bundles the wired service with the upstream clients it depends on.
type app struct {
	service   *forecast.Service
	upstreams []*upstream.Client
}

func buildApp(cfg *config.AppConfig, log logrus.FieldLogger) (*app, error) {
	backoff := upstream.BackoffConfig{
		MaxRetries:      cfg.Upstream.MaxRetries,
		InitialInterval: cfg.Upstream.InitialBackoff,
		MaxInterval:     cfg.Upstream.MaxBackoff,
	}

	breaker := upstream.BreakerConfig{
		Enabled:          cfg.Upstream.Breaker.Enabled,
		FailureThreshold: cfg.Upstream.Breaker.FailureThreshold,
		HalfOpenRequests: cfg.Upstream.Breaker.HalfOpenRequests,
		OpenTimeout:      cfg.Upstream.Breaker.OpenTimeout,
	}
	newClient := func(name string) *upstream.Client {
		return upstream.NewClient(upstream.Config{Name: name, Timeout: cfg.Upstream.Timeout, Backoff: backoff, Breaker: breaker})
	}

	loc, err := cfg.Forecast.Location()
	if err != nil {
		return nil, err
	}

	var (
		fetcher   forecast.Fetcher
		upstreams []*upstream.Client
	)
	switch cfg.Forecast.Provider {
	case "openmeteo":
		meteo := newClient("openmeteo")
		upstreams = append(upstreams, meteo)
		fetcher = providers.NewOpenMeteoFetcher(meteo, cfg.Forecast.OpenMeteoURL, loc)
	case "openweather":
		onecall := newClient("onecall")
		upstreams = append(upstreams, onecall)
		fetcher = providers.NewOpenWeatherFetcher(onecall, cfg.Forecast.OneCallURL, cfg.Forecast.APIKey, loc)
	default:
		return nil, fmt.Errorf("unknown forecast provider %q", cfg.Forecast.Provider)
	}

	var resolver forecast.Resolver
	switch cfg.Resolver.Provider {
	case "google":
		resolver = providers.NewGoogleResolver(cfg.Resolver.GoogleAPIKey)
	case "reservamos":
		places := newClient("places")
		upstreams = append(upstreams, places)
		resolver = providers.NewReservamosResolver(places, cfg.Resolver.PlacesURL)
	default:
		return nil, fmt.Errorf("unknown resolver provider %q", cfg.Resolver.Provider)
	}

	return &app{
		service:   forecast.NewService(resolver, fetcher, log),
		upstreams: upstreams,
	}, nil
}
