package providers

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/i474232898/city-forecast/internal/forecast"
	"github.com/i474232898/city-forecast/internal/upstream"
)

const DefaultOneCallURL = "https://api.openweathermap.org/data/2.5/onecall"

// OpenWeatherFetcher implements forecast.Fetcher with the OpenWeatherMap One Call API.
type OpenWeatherFetcher struct {
	client   *upstream.Client
	apiKey   string
	baseURL  string
	location *time.Location
}

// NewOpenWeatherFetcher builds a fetcher. Dates are rendered in loc, or in the
// server's local zone when loc is nil.
func NewOpenWeatherFetcher(client *upstream.Client, baseURL, apiKey string, loc *time.Location) *OpenWeatherFetcher {
	if baseURL == "" {
		baseURL = DefaultOneCallURL
	}
	if loc == nil {
		loc = time.Local
	}
	return &OpenWeatherFetcher{
		client:   client,
		apiKey:   apiKey,
		baseURL:  baseURL,
		location: loc,
	}
}

func (p *OpenWeatherFetcher) Fetch(ctx context.Context, lat, long string) ([]forecast.DailyForecast, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("openweather api key is not configured")
	}

	values := url.Values{}
	values.Set("lat", lat)
	values.Set("lon", long)
	values.Set("exclude", "current,minutely,hourly,alerts")
	values.Set("appid", p.apiKey)
	values.Set("units", "metric")

	var payload struct {
		Daily []struct {
			Dt   int64 `json:"dt"`
			Temp struct {
				Min float64 `json:"min"`
				Max float64 `json:"max"`
			} `json:"temp"`
		} `json:"daily"`
	}

	if err := p.client.GetJSON(ctx, p.baseURL, values, &payload); err != nil {
		return nil, err
	}

	days := make([]forecast.DailyForecast, 0, len(payload.Daily))
	for _, d := range payload.Daily {
		days = append(days, forecast.DailyForecast{
			Datetime: time.Unix(d.Dt, 0).In(p.location).Format("2006-01-02"),
			TempMin:  d.Temp.Min,
			TempMax:  d.Temp.Max,
		})
	}
	return days, nil
}
