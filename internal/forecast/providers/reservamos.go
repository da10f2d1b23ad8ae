package providers

import (
	"context"
	"net/url"

	"github.com/i474232898/city-forecast/internal/forecast"
	"github.com/i474232898/city-forecast/internal/upstream"
)

const DefaultPlacesURL = "https://search.reservamos.mx/api/v2/places"

// ReservamosResolver implements forecast.Resolver on top of the Reservamos place search.
type ReservamosResolver struct {
	client  *upstream.Client
	baseURL string
}

func NewReservamosResolver(client *upstream.Client, baseURL string) *ReservamosResolver {
	if baseURL == "" {
		baseURL = DefaultPlacesURL
	}
	return &ReservamosResolver{
		client:  client,
		baseURL: baseURL,
	}
}

type place struct {
	ID       looseString `json:"id"`
	Lat      looseString `json:"lat"`
	Long     looseString `json:"long"`
	CityName *string     `json:"city_name"`
}

func (p *ReservamosResolver) Resolve(ctx context.Context, city string) ([]forecast.CityCandidate, error) {
	values := url.Values{}
	values.Set("q", city)

	var payload []place
	if err := p.client.GetJSON(ctx, p.baseURL, values, &payload); err != nil {
		return nil, err
	}

	return normalizePlaces(payload), nil
}

// normalizePlaces drops places without an id or coordinates. city_name is kept as is.
func normalizePlaces(places []place) []forecast.CityCandidate {
	out := make([]forecast.CityCandidate, 0, len(places))
	for _, pl := range places {
		if pl.ID == "" || pl.Lat == "" || pl.Long == "" {
			continue
		}
		out = append(out, forecast.CityCandidate{
			ID:       string(pl.ID),
			Lat:      string(pl.Lat),
			Long:     string(pl.Long),
			CityName: pl.CityName,
		})
	}
	return out
}
