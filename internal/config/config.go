package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/i474232898/city-forecast/internal/common"
)

const defaultConfigFile = "configs/config.yaml"

type AppConfig struct {
	Port         string        `yaml:"port" validate:"required,numeric"`
	ReadTimeout  time.Duration `yaml:"readTimeout" validate:"gte=0"`
	WriteTimeout time.Duration `yaml:"writeTimeout" validate:"gte=0"`
	// Upper bound for one /weather lookup, every upstream call included.
	RequestTimeout time.Duration `yaml:"requestTimeout" validate:"gte=0"`

	Resolver ResolverConfig `yaml:"resolver"`
	Forecast ForecastConfig `yaml:"forecast"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Probe    ProbeConfig    `yaml:"probe"`
	Log      LogConfig      `yaml:"log"`
}

// ResolverConfig selects and configures the place-search backend.
type ResolverConfig struct {
	Provider     string `yaml:"provider" validate:"oneof=reservamos google"`
	PlacesURL    string `yaml:"placesUrl" validate:"required,url"`
	GoogleAPIKey string `yaml:"googleApiKey" validate:"required_if=Provider google"`
}

// ForecastConfig selects and configures the weather backend.
type ForecastConfig struct {
	Provider     string `yaml:"provider" validate:"oneof=openweather openmeteo"`
	OneCallURL   string `yaml:"oneCallUrl" validate:"required,url"`
	APIKey       string `yaml:"apiKey" validate:"required_if=Provider openweather"`
	OpenMeteoURL string `yaml:"openMeteoUrl" validate:"required,url"`
	// Timezone used to render forecast dates. Empty or "Local" means the server zone.
	Timezone string `yaml:"timezone"`
}

// UpstreamConfig applies to every outbound call.
type UpstreamConfig struct {
	Timeout        time.Duration `yaml:"timeout" validate:"gte=0"`
	MaxRetries     int           `yaml:"maxRetries" validate:"gte=0"`
	InitialBackoff time.Duration `yaml:"initialBackoff" validate:"gte=0"`
	MaxBackoff     time.Duration `yaml:"maxBackoff" validate:"gte=0"`

	Breaker BreakerConfig `yaml:"circuitBreaker"`
}

// BreakerConfig is the per-upstream circuit breaker. Off by default so that
// one request's failures never affect the next.
type BreakerConfig struct {
	Enabled          bool          `yaml:"enabled"`
	FailureThreshold uint32        `yaml:"failureThreshold"`
	HalfOpenRequests uint32        `yaml:"halfOpenRequests"`
	OpenTimeout      time.Duration `yaml:"openTimeout" validate:"gte=0"`
}

// ProbeConfig drives the background upstream probe.
type ProbeConfig struct {
	Cities   []string      `yaml:"cities" validate:"dive,required"`
	Interval time.Duration `yaml:"interval" validate:"gte=0"`
	Timeout  time.Duration `yaml:"timeout" validate:"gte=0"`

	// In-memory store retention.
	MaxHistory int           `yaml:"maxHistory" validate:"gte=0"` // max results per city (0 = unlimited)
	MaxAge     time.Duration `yaml:"maxAge" validate:"gte=0"`     // max age of results (0 = unlimited)
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format" validate:"omitempty,oneof=json text"`
}

var validate = validator.New()

// Load reads configuration from defaults, an optional YAML file and the
// environment (in that order of precedence, lowest first).
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Infof("No .env file found or error loading it: %v", err)
	}
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat(defaultConfigFile); err == nil {
		if err := hydrateFromFile(cfg, defaultConfigFile); err != nil {
			return nil, err
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		Port:           "8080",
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		RequestTimeout: 30 * time.Second,
		Resolver: ResolverConfig{
			Provider:  "reservamos",
			PlacesURL: "https://search.reservamos.mx/api/v2/places",
		},
		Forecast: ForecastConfig{
			Provider:     "openweather",
			OneCallURL:   "https://api.openweathermap.org/data/2.5/onecall",
			OpenMeteoURL: "https://api.open-meteo.com/v1/forecast",
		},
		Upstream: UpstreamConfig{
			Timeout:        10 * time.Second,
			MaxRetries:     0,
			InitialBackoff: 500 * time.Millisecond,
			MaxBackoff:     5 * time.Second,
			Breaker: BreakerConfig{
				FailureThreshold: 5,
				HalfOpenRequests: 10,
				OpenTimeout:      2 * time.Minute,
			},
		},
		Probe: ProbeConfig{
			Interval:   15 * time.Minute,
			Timeout:    30 * time.Second,
			MaxHistory: 96, // roughly 24h at 15-minute intervals
			MaxAge:     24 * time.Hour,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func hydrateFromFile(cfg *AppConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *AppConfig) error {
	cfg.Port = getenvDefault("PORT", cfg.Port)

	cfg.Resolver.Provider = strings.ToLower(getenvDefault("RESOLVER_PROVIDER", cfg.Resolver.Provider))
	cfg.Resolver.PlacesURL = getenvDefault("PLACES_URL", cfg.Resolver.PlacesURL)
	cfg.Resolver.GoogleAPIKey = getenvDefault("GOOGLE_GEOCODER_API_KEY", cfg.Resolver.GoogleAPIKey)

	cfg.Forecast.Provider = strings.ToLower(getenvDefault("FORECAST_PROVIDER", cfg.Forecast.Provider))
	cfg.Forecast.OneCallURL = getenvDefault("ONECALL_URL", cfg.Forecast.OneCallURL)
	cfg.Forecast.OpenMeteoURL = getenvDefault("OPENMETEO_URL", cfg.Forecast.OpenMeteoURL)
	cfg.Forecast.APIKey = getenvDefault("OPENWEATHER_API_KEY", cfg.Forecast.APIKey)
	cfg.Forecast.Timezone = getenvDefault("FORECAST_TIMEZONE", cfg.Forecast.Timezone)

	cfg.Upstream.MaxRetries = getenvInt("UPSTREAM_MAX_RETRIES", cfg.Upstream.MaxRetries)
	cfg.Upstream.Breaker.Enabled = getenvBool("UPSTREAM_BREAKER_ENABLED", cfg.Upstream.Breaker.Enabled)
	cfg.Upstream.Breaker.FailureThreshold = uint32(getenvInt("UPSTREAM_BREAKER_THRESHOLD", int(cfg.Upstream.Breaker.FailureThreshold)))
	cfg.Probe.MaxHistory = getenvInt("PROBE_MAX_HISTORY", cfg.Probe.MaxHistory)

	if v := os.Getenv("PROBE_CITIES"); v != "" {
		cfg.Probe.Cities = common.SplitList(v)
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"REQUEST_TIMEOUT", &cfg.RequestTimeout},
		{"UPSTREAM_TIMEOUT", &cfg.Upstream.Timeout},
		{"UPSTREAM_BREAKER_OPEN_TIMEOUT", &cfg.Upstream.Breaker.OpenTimeout},
		{"PROBE_INTERVAL", &cfg.Probe.Interval},
		{"PROBE_MAX_AGE", &cfg.Probe.MaxAge},
	}
	for _, d := range durations {
		v := os.Getenv(d.key)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", d.key, err)
		}
		*d.dst = parsed
	}

	cfg.Log.Level = getenvDefault("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(getenvDefault("LOG_FORMAT", cfg.Log.Format))
	return nil
}

// Validate ensures the configuration is safe to use.
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if _, err := c.Forecast.Location(); err != nil {
		return err
	}
	if c.Upstream.MaxRetries > 0 && c.Upstream.InitialBackoff <= 0 {
		return fmt.Errorf("upstream.initialBackoff must be positive when retries are enabled")
	}
	if c.Upstream.Breaker.Enabled && c.Upstream.Breaker.FailureThreshold == 0 {
		return fmt.Errorf("upstream.circuitBreaker.failureThreshold must be positive when the breaker is enabled")
	}
	if len(c.Probe.Cities) > 0 && c.Probe.Interval <= 0 {
		return fmt.Errorf("probe.interval must be positive when probe cities are configured")
	}
	return nil
}

// Location resolves Timezone.
func (f ForecastConfig) Location() (*time.Location, error) {
	if f.Timezone == "" || strings.EqualFold(f.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(f.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid forecast.timezone: %w", err)
	}
	return loc, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
