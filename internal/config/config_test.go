package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithAPIKey(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", "k")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "reservamos", cfg.Resolver.Provider)
	assert.Equal(t, "https://search.reservamos.mx/api/v2/places", cfg.Resolver.PlacesURL)
	assert.Equal(t, "https://api.openweathermap.org/data/2.5/onecall", cfg.Forecast.OneCallURL)
	assert.Equal(t, "k", cfg.Forecast.APIKey)
	assert.Equal(t, 0, cfg.Upstream.MaxRetries)
	assert.Empty(t, cfg.Probe.Cities)

	loc, err := cfg.Forecast.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)
}

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadFileThenEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
port: "9090"
forecast:
  apiKey: from-file
  timezone: America/Mexico_City
upstream:
  timeout: 3s
  maxRetries: 2
probe:
  cities: [Guadalajara]
  interval: 5m
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("OPENWEATHER_API_KEY", "")
	t.Setenv("PORT", "7070")
	t.Setenv("PROBE_CITIES", "Monterrey, Puebla")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, "from-file", cfg.Forecast.APIKey)
	assert.Equal(t, 3*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, 2, cfg.Upstream.MaxRetries)
	assert.Equal(t, 5*time.Minute, cfg.Probe.Interval)
	assert.Equal(t, []string{"Monterrey", "Puebla"}, cfg.Probe.Cities)

	loc, err := cfg.Forecast.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/Mexico_City", loc.String())
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", "k")
	t.Setenv("UPSTREAM_TIMEOUT", "soon")

	_, err := Load()
	require.Error(t, err)
}

func TestValidateResolverProvider(t *testing.T) {
	cfg := defaultConfig()
	cfg.Forecast.APIKey = "k"
	require.NoError(t, cfg.Validate())

	cfg.Resolver.Provider = "bing"
	assert.Error(t, cfg.Validate())

	cfg.Resolver.Provider = "google"
	assert.Error(t, cfg.Validate(), "google requires an api key")

	cfg.Resolver.GoogleAPIKey = "g"
	assert.NoError(t, cfg.Validate())
}

func TestValidateForecastProvider(t *testing.T) {
	cfg := defaultConfig()
	assert.Error(t, cfg.Validate(), "openweather requires an api key")

	cfg.Forecast.Provider = "openmeteo"
	assert.NoError(t, cfg.Validate())

	cfg.Forecast.Provider = "darksky"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsUnknownTimezone(t *testing.T) {
	cfg := defaultConfig()
	cfg.Forecast.APIKey = "k"
	cfg.Forecast.Timezone = "Mars/Olympus_Mons"

	assert.Error(t, cfg.Validate())
}

func TestValidateProbeNeedsInterval(t *testing.T) {
	cfg := defaultConfig()
	cfg.Forecast.APIKey = "k"
	cfg.Probe.Cities = []string{"Guadalajara"}
	cfg.Probe.Interval = 0

	assert.Error(t, cfg.Validate())
}

func TestBreakerDisabledByDefault(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", "k")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.Upstream.Breaker.Enabled)
	assert.EqualValues(t, 5, cfg.Upstream.Breaker.FailureThreshold)
}

func TestBreakerEnvOverrides(t *testing.T) {
	t.Setenv("OPENWEATHER_API_KEY", "k")
	t.Setenv("UPSTREAM_BREAKER_ENABLED", "true")
	t.Setenv("UPSTREAM_BREAKER_THRESHOLD", "8")
	t.Setenv("UPSTREAM_BREAKER_OPEN_TIMEOUT", "30s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Upstream.Breaker.Enabled)
	assert.EqualValues(t, 8, cfg.Upstream.Breaker.FailureThreshold)
	assert.Equal(t, 30*time.Second, cfg.Upstream.Breaker.OpenTimeout)
}

func TestValidateEnabledBreakerNeedsThreshold(t *testing.T) {
	cfg := defaultConfig()
	cfg.Forecast.APIKey = "k"
	cfg.Upstream.Breaker.Enabled = true
	cfg.Upstream.Breaker.FailureThreshold = 0

	assert.Error(t, cfg.Validate())
}
