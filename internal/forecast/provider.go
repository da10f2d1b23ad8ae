package forecast

import "context"

// Resolver turns a free-text city name into coordinate candidates.
type Resolver interface {
	Resolve(ctx context.Context, city string) ([]CityCandidate, error)
}

// Fetcher returns the daily forecast for a coordinate pair, in chronological order.
type Fetcher interface {
	Fetch(ctx context.Context, lat, long string) ([]DailyForecast, error)
}
