package providers

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/i474232898/city-forecast/internal/forecast"
	"github.com/i474232898/city-forecast/internal/upstream"
)

const DefaultOpenMeteoURL = "https://api.open-meteo.com/v1/forecast"

// OpenMeteoFetcher implements forecast.Fetcher for Open-Meteo. It needs no API key.
type OpenMeteoFetcher struct {
	client   *upstream.Client
	baseURL  string
	timezone string
}

// NewOpenMeteoFetcher builds a fetcher. Open-Meteo buckets days server side, so
// loc is sent as the timezone parameter; the server's local zone has no IANA
// name and is sent as "auto" (the coordinates' own zone).
func NewOpenMeteoFetcher(client *upstream.Client, baseURL string, loc *time.Location) *OpenMeteoFetcher {
	if baseURL == "" {
		baseURL = DefaultOpenMeteoURL
	}
	tz := "auto"
	if loc != nil && loc != time.Local && loc.String() != "Local" {
		tz = loc.String()
	}
	return &OpenMeteoFetcher{
		client:   client,
		baseURL:  baseURL,
		timezone: tz,
	}
}

func (p *OpenMeteoFetcher) Fetch(ctx context.Context, lat, long string) ([]forecast.DailyForecast, error) {
	values := url.Values{}
	values.Set("latitude", lat)
	values.Set("longitude", long)
	values.Set("daily", "temperature_2m_min,temperature_2m_max")
	values.Set("timezone", p.timezone)

	var payload struct {
		Daily struct {
			Time []string  `json:"time"`
			Min  []float64 `json:"temperature_2m_min"`
			Max  []float64 `json:"temperature_2m_max"`
		} `json:"daily"`
	}

	if err := p.client.GetJSON(ctx, p.baseURL, values, &payload); err != nil {
		return nil, err
	}

	d := payload.Daily
	if len(d.Min) != len(d.Time) || len(d.Max) != len(d.Time) {
		return nil, fmt.Errorf("openmeteo daily series length mismatch: time=%d min=%d max=%d", len(d.Time), len(d.Min), len(d.Max))
	}

	days := make([]forecast.DailyForecast, 0, len(d.Time))
	for i, day := range d.Time {
		days = append(days, forecast.DailyForecast{
			Datetime: day,
			TempMin:  d.Min[i],
			TempMax:  d.Max[i],
		})
	}
	return days, nil
}
