package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"

	"github.com/i474232898/city-forecast/internal/forecast"
	"github.com/i474232898/city-forecast/internal/store"
)

// Aggregator is the lookup the scheduler exercises.
type Aggregator interface {
	CityForecasts(ctx context.Context, city string) ([]forecast.EnrichedCity, error)
}

// Recorder persists probe outcomes.
type Recorder interface {
	Save(result store.ProbeResult)
}

// Scheduler periodically looks up the configured cities to observe upstream health.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   Aggregator
	results   Recorder
	cities    []string
	interval  time.Duration
	timeout   time.Duration
	log       logrus.FieldLogger
}

// New creates a new Scheduler. A non-positive timeout defaults to 30s.
func New(cities []string, interval, timeout time.Duration, service Aggregator, results Recorder, log logrus.FieldLogger) *Scheduler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		service:   service,
		results:   results,
		cities:    cities,
		interval:  interval,
		timeout:   timeout,
		log:       log.WithField("component", "scheduler"),
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if len(s.cities) == 0 {
		s.log.Info("no probe cities configured; nothing to schedule")
		return nil
	}

	interval := s.interval
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	_, err := s.scheduler.Every(interval).SingletonMode().Do(s.RunOnce)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.log.WithFields(logrus.Fields{"cities": len(s.cities), "interval": interval.String()}).Info("probe scheduled")
	return nil
}

// RunOnce probes every configured city concurrently and records the outcomes.
func (s *Scheduler) RunOnce() {
	s.log.Debug("running probe job")

	var wg sync.WaitGroup
	for _, city := range s.cities {
		city := city
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.results.Save(s.probe(city))
		}()
	}
	wg.Wait()

	s.log.Debug("completed probe job")
}

func (s *Scheduler) probe(city string) store.ProbeResult {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	cities, err := s.service.CityForecasts(ctx, city)
	result := store.ProbeResult{
		City:       city,
		CheckedAt:  start.UTC(),
		Candidates: len(cities),
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		result.Error = err.Error()
		s.log.WithFields(logrus.Fields{"city": city, "error": err}).Warn("probe failed")
	}
	return result
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
