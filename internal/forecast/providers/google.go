package providers

import (
	"context"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/kelvins/geocoder"

	"github.com/i474232898/city-forecast/internal/common"
	"github.com/i474232898/city-forecast/internal/forecast"
	"github.com/i474232898/city-forecast/internal/upstream"
)

const googleUpstream = "google-geocoder"

// GoogleResolver implements forecast.Resolver with the Google Geocoding API.
// It yields at most one candidate per city.
type GoogleResolver struct {
	geocode func(geocoder.Address) (geocoder.Location, error)
}

// NewGoogleResolver configures the geocoder package with apiKey. The package
// keeps the key in a global, so only one key can be active per process.
func NewGoogleResolver(apiKey string) *GoogleResolver {
	geocoder.ApiKey = apiKey
	return &GoogleResolver{geocode: geocoder.Geocoding}
}

// Resolve does not honor ctx once the request is in flight; the geocoder
// package has no context support.
func (p *GoogleResolver) Resolve(ctx context.Context, city string) ([]forecast.CityCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, &upstream.Error{Upstream: googleUpstream, Err: err}
	}

	loc, err := p.geocode(geocoder.Address{City: city})
	if err != nil {
		if common.HasAny(err.Error(), "zero_results", "no results") {
			return []forecast.CityCandidate{}, nil
		}
		return nil, &upstream.Error{Upstream: googleUpstream, Err: err}
	}

	name := city
	return []forecast.CityCandidate{{
		ID:       candidateID(city),
		Lat:      strconv.FormatFloat(loc.Latitude, 'f', -1, 64),
		Long:     strconv.FormatFloat(loc.Longitude, 'f', -1, 64),
		CityName: &name,
	}}, nil
}

// candidateID is stable for a given city name regardless of case and padding.
func candidateID(city string) string {
	key := strings.ToLower(strings.TrimSpace(city))
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(googleUpstream+":"+key)).String()
}
