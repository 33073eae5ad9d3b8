package config

import (
	"context"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	OpenSky     OpenSkyConfig
	AeroDataBox AeroDataBoxConfig
	Registry    RegistryConfig
	Cache       CacheConfig
	Vestaboard  VestaboardConfig
	Poller      PollerConfig
}

type OpenSkyConfig struct {
	ClientID     string        `env:"OPENSKY_CLIENT_ID"`
	ClientSecret string        `env:"OPENSKY_CLIENT_SECRET"`
	BaseURL      string        `env:"OPENSKY_BASE_URL,  default=https://opensky-network.org/api"`
	TokenURL     string        `env:"OPENSKY_TOKEN_URL, default=https://auth.opensky-network.org/auth/realms/opensky-network/protocol/openid-connect/token"`
	Timeout      time.Duration `env:"OPENSKY_TIMEOUT,   default=30s"`
}

func (c OpenSkyConfig) CredentialsLoaded() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

type AeroDataBoxConfig struct {
	APIKey  string        `env:"AERODATABOX_API_KEY"`
	APIHost string        `env:"AERODATABOX_API_HOST, default=aerodatabox.p.rapidapi.com"`
	BaseURL string        `env:"AERODATABOX_BASE_URL, default=https://aerodatabox.p.rapidapi.com"`
	Timeout time.Duration `env:"AERODATABOX_TIMEOUT,  default=30s"`
}

func (c AeroDataBoxConfig) CredentialsLoaded() bool {
	return c.APIKey != "" && c.APIHost != ""
}

type RegistryConfig struct {
	HexDBBaseURL        string `env:"HEXDB_BASE_URL"`
	ADSBExchangeBaseURL string `env:"ADSBEXCHANGE_BASE_URL"`
	// CSVPath points at the bulk OpenSky registration export used as the
	// offline last-resort metadata source.
	CSVPath string `env:"AIRCRAFT_DB_CSV, default=aircraftDatabase.csv"`
}

type CacheConfig struct {
	TTL time.Duration `env:"CACHE_TTL, default=300s"`

	// RedisAddr enables the optional persistent metadata snapshot when
	// non-empty.
	RedisAddr   string        `env:"REDIS_ADDR"`
	RedisDB     int           `env:"REDIS_DB,     default=0"`
	SnapshotTTL time.Duration `env:"SNAPSHOT_TTL, default=24h"`
}

type VestaboardConfig struct {
	Enabled bool   `env:"VESTABOARD_ENABLED, default=false"`
	BaseURL string `env:"VESTABOARD_URL"`
	APIKey  string `env:"VESTABOARD_API_KEY"`
	// ResetThreshold bounds the notified set; crossing it clears the set.
	ResetThreshold int `env:"VESTABOARD_RESET_THRESHOLD, default=100"`
}

func (c VestaboardConfig) Configured() bool {
	return c.Enabled && c.BaseURL != "" && c.APIKey != ""
}

type PollerConfig struct {
	Enabled    bool          `env:"POLLER_ENABLED,     default=false"`
	Lat        float64       `env:"POLLER_LAT,         default=51.5995"`
	Lon        float64       `env:"POLLER_LON,         default=-0.5545"`
	RadiusKm   float64       `env:"POLLER_RADIUS_KM,   default=5"`
	Interval   time.Duration `env:"POLLER_INTERVAL,    default=30s"`
	MaxRetries int           `env:"POLLER_MAX_RETRIES, default=3"`
	RetryDelay time.Duration `env:"POLLER_RETRY_DELAY, default=5s"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
