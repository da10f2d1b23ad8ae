package forecast

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ErrCityNotFound signals that a city resolved to no usable candidates.
var ErrCityNotFound = errors.New("city not found")

// Service resolves a city and fans out forecast lookups for every candidate.
type Service struct {
	resolver Resolver
	fetcher  Fetcher
	log      logrus.FieldLogger
}

// NewService creates a new Service.
func NewService(resolver Resolver, fetcher Fetcher, log logrus.FieldLogger) *Service {
	return &Service{
		resolver: resolver,
		fetcher:  fetcher,
		log:      log,
	}
}

// CityForecasts resolves city once, then fetches the forecast of every candidate
// concurrently. Results are appended in the order fetches complete, not in
// candidate order. The first fetch error fails the whole call; siblings are not
// cancelled and are waited for before returning.
//
// An empty, non-nil slice is returned when the city has no candidates.
func (s *Service) CityForecasts(ctx context.Context, city string) ([]EnrichedCity, error) {
	candidates, err := s.resolver.Resolve(ctx, city)
	if err != nil {
		return nil, errors.WithMessagef(err, "resolve %q", city)
	}

	log := s.log.WithField("city", city)
	if len(candidates) == 0 {
		log.Debug("no candidates resolved")
		return []EnrichedCity{}, nil
	}
	log.WithField("candidates", len(candidates)).Debug("fetching forecasts")

	var (
		g       errgroup.Group
		mu      sync.Mutex
		results = make([]EnrichedCity, 0, len(candidates))
	)

	for _, c := range candidates {
		c := c
		g.Go(func() error {
			days, err := s.fetcher.Fetch(ctx, c.Lat, c.Long)
			if err != nil {
				log.WithFields(logrus.Fields{"id": c.ID, "error": err}).Debug("forecast fetch failed")
				return errors.WithMessagef(err, "fetch forecast for candidate %s", c.ID)
			}
			if days == nil {
				days = []DailyForecast{}
			}

			mu.Lock()
			results = append(results, EnrichedCity{CityCandidate: c, Weather: days})
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
