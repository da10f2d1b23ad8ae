package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/city-forecast/internal/upstream"
)

func TestOpenMeteoFetchNormalizesDaily(t *testing.T) {
	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Query()
		_, _ = w.Write([]byte(`{
			"daily": {
				"time": ["2024-05-01", "2024-05-02"],
				"temperature_2m_min": [14.2, 15.1],
				"temperature_2m_max": [31.5, 32.0]
			}
		}`))
	}))
	defer srv.Close()

	zone, err := time.LoadLocation("America/Mexico_City")
	require.NoError(t, err)

	f := NewOpenMeteoFetcher(upstream.NewClient(upstream.Config{Name: "openmeteo"}), srv.URL, zone)
	days, err := f.Fetch(context.Background(), "20.67", "-103.34")

	require.NoError(t, err)
	assert.Equal(t, "20.67", got.Get("latitude"))
	assert.Equal(t, "-103.34", got.Get("longitude"))
	assert.Equal(t, "temperature_2m_min,temperature_2m_max", got.Get("daily"))
	assert.Equal(t, "America/Mexico_City", got.Get("timezone"))

	require.Len(t, days, 2)
	assert.Equal(t, "2024-05-02", days[1].Datetime)
	assert.Equal(t, 15.1, days[1].TempMin)
	assert.Equal(t, 32.0, days[1].TempMax)
}

func TestOpenMeteoFetchLocalZoneIsAuto(t *testing.T) {
	f := NewOpenMeteoFetcher(upstream.NewClient(upstream.Config{Name: "openmeteo"}), "", nil)
	assert.Equal(t, "auto", f.timezone)
	assert.Equal(t, DefaultOpenMeteoURL, f.baseURL)
}

func TestOpenMeteoFetchRejectsRaggedSeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"daily": {"time": ["2024-05-01"], "temperature_2m_min": [], "temperature_2m_max": [1]}}`))
	}))
	defer srv.Close()

	f := NewOpenMeteoFetcher(upstream.NewClient(upstream.Config{Name: "openmeteo"}), srv.URL, time.UTC)
	_, err := f.Fetch(context.Background(), "1", "2")
	require.Error(t, err)
}

func TestOpenMeteoFetchWithoutDailyReturnsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"latitude": 1}`))
	}))
	defer srv.Close()

	f := NewOpenMeteoFetcher(upstream.NewClient(upstream.Config{Name: "openmeteo"}), srv.URL, time.UTC)
	days, err := f.Fetch(context.Background(), "1", "2")

	require.NoError(t, err)
	assert.NotNil(t, days)
	assert.Empty(t, days)
}
