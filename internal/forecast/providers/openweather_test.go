package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/city-forecast/internal/upstream"
)

func TestOpenWeatherFetchBuildsRequestAndNormalizesDaily(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		_, _ = w.Write([]byte(`{
			"lat": 20.67, "lon": -103.34,
			"daily": [
				{"dt": 1714564800, "temp": {"min": 14.2, "max": 31.5, "day": 28}},
				{"dt": 1714651200, "temp": {"min": 15.1, "max": 32.0}}
			]
		}`))
	}))
	defer srv.Close()

	f := NewOpenWeatherFetcher(upstream.NewClient(upstream.Config{Name: "onecall"}), srv.URL, "secret", time.UTC)
	days, err := f.Fetch(context.Background(), "20.67", "-103.34")

	require.NoError(t, err)
	assert.Equal(t, "20.67", got.Get("lat"))
	assert.Equal(t, "-103.34", got.Get("lon"))
	assert.Equal(t, "current,minutely,hourly,alerts", got.Get("exclude"))
	assert.Equal(t, "secret", got.Get("appid"))
	assert.Equal(t, "metric", got.Get("units"))

	require.Len(t, days, 2)
	assert.Equal(t, "2024-05-01", days[0].Datetime)
	assert.Equal(t, 14.2, days[0].TempMin)
	assert.Equal(t, 31.5, days[0].TempMax)
	assert.Equal(t, "2024-05-02", days[1].Datetime)
}

func TestOpenWeatherFetchUsesConfiguredZone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 2024-05-01T02:00:00Z
		_, _ = w.Write([]byte(`{"daily": [{"dt": 1714528800, "temp": {"min": 1, "max": 2}}]}`))
	}))
	defer srv.Close()

	west := time.FixedZone("UTC-6", -6*60*60)
	f := NewOpenWeatherFetcher(upstream.NewClient(upstream.Config{Name: "onecall"}), srv.URL, "k", west)
	days, err := f.Fetch(context.Background(), "1", "2")

	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, "2024-04-30", days[0].Datetime)
}

func TestOpenWeatherFetchWithoutDailyReturnsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"lat": 1, "lon": 2}`))
	}))
	defer srv.Close()

	f := NewOpenWeatherFetcher(upstream.NewClient(upstream.Config{Name: "onecall"}), srv.URL, "k", nil)
	days, err := f.Fetch(context.Background(), "1", "2")

	require.NoError(t, err)
	assert.NotNil(t, days)
	assert.Empty(t, days)
}

func TestOpenWeatherFetchPropagatesHTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"cod":401,"message":"Invalid API key"}`))
	}))
	defer srv.Close()

	f := NewOpenWeatherFetcher(upstream.NewClient(upstream.Config{Name: "onecall"}), srv.URL, "bad", nil)
	_, err := f.Fetch(context.Background(), "1", "2")

	var upErr *upstream.Error
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, http.StatusUnauthorized, upErr.StatusCode)
}

func TestOpenWeatherFetchRequiresAPIKey(t *testing.T) {
	f := NewOpenWeatherFetcher(upstream.NewClient(upstream.Config{Name: "onecall"}), "http://127.0.0.1:0", "", nil)
	_, err := f.Fetch(context.Background(), "1", "2")
	require.Error(t, err)
}
