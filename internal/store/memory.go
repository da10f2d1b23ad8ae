package store

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"
)

var (
	// ErrNotFound is returned when no probe has been recorded for a city.
	ErrNotFound = errors.New("no probe results for city")
)

// ProbeResult is the outcome of one background lookup of a city.
type ProbeResult struct {
	City       string    `json:"city"`
	CheckedAt  time.Time `json:"checked_at"` // always UTC
	Candidates int       `json:"candidates"`
	DurationMs int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
}

// OK reports whether the probe completed without error.
func (r ProbeResult) OK() bool {
	return r.Error == ""
}

// ProbeHistory holds a time-ordered list of probe results for a city.
type ProbeHistory struct {
	Results []ProbeResult
}

// MemoryStore is a concurrency-safe in-memory store of probe results.
type MemoryStore struct {
	mu sync.RWMutex

	// key: normalized city, value: history
	data map[string]*ProbeHistory

	// retention configuration
	maxHistory int           // max number of results per city
	maxAge     time.Duration // optional max age for results
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*ProbeHistory),
		maxHistory: maxHistory,
		maxAge:     maxAge,
	}
}

func key(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}

// Save appends a result for its city and enforces retention.
func (s *MemoryStore) Save(result ProbeResult) {
	k := key(result.City)

	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[k]
	if !ok {
		history = &ProbeHistory{}
		s.data[k] = history
	}

	history.Results = append(history.Results, result)

	// Enforce retention by count.
	if s.maxHistory > 0 && len(history.Results) > s.maxHistory {
		over := len(history.Results) - s.maxHistory
		history.Results = history.Results[over:]
	}

	// Enforce retention by age.
	if s.maxAge > 0 {
		cutoff := time.Now().Add(-s.maxAge)
		i := 0
		for ; i < len(history.Results); i++ {
			if !history.Results[i].CheckedAt.Before(cutoff) {
				break
			}
		}
		if i > 0 {
			history.Results = history.Results[i:]
		}
	}
}

// Latest returns the most recent result for a city.
func (s *MemoryStore) Latest(city string) (ProbeResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[key(city)]
	if !ok || len(history.Results) == 0 {
		return ProbeResult{}, ErrNotFound
	}
	return history.Results[len(history.Results)-1], nil
}

// History returns a copy of every retained result for a city, oldest first.
func (s *MemoryStore) History(city string) ([]ProbeResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[key(city)]
	if !ok || len(history.Results) == 0 {
		return nil, ErrNotFound
	}
	out := make([]ProbeResult, len(history.Results))
	copy(out, history.Results)
	return out, nil
}

// LatestAll returns the latest result of every city, sorted by city.
func (s *MemoryStore) LatestAll() []ProbeResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ProbeResult, 0, len(s.data))
	for _, history := range s.data {
		if len(history.Results) == 0 {
			continue
		}
		out = append(out, history.Results[len(history.Results)-1])
	}
	sort.Slice(out, func(i, j int) bool {
		return key(out[i].City) < key(out[j].City)
	})
	return out
}
