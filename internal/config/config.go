package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/rotisserie/eris"
)

// Config holds runtime configuration values for the article API.
type Config struct {
	DB            DBConfig        `koanf:"db"`
	ServerPort    int             `koanf:"server_port"`
	LogLevel      string          `koanf:"log_level"`
	SentryDSN     string          `koanf:"sentry_dsn"`
	Environment   string          `koanf:"environment"`
	ShutdownGrace time.Duration   `koanf:"shutdown_grace"`
	RateLimit     RateLimitConfig `koanf:"rate_limit"`
}

// DBConfig selects the SQL driver and its connection target.
type DBConfig struct {
	Driver string `koanf:"driver"`
	Path   string `koanf:"path"`
	DSN    string `koanf:"dsn"`
}

// RateLimitConfig controls the per-client token bucket in front of the API.
type RateLimitConfig struct {
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	Burst             int           `koanf:"burst"`
	ClientTTL         time.Duration `koanf:"client_ttl"`
}

const (
	defaultDBDriver      = "sqlite"
	defaultDBPath        = "./data/articles.db"
	defaultServerPort    = 8080
	defaultLogLevel      = "info"
	defaultEnvironment   = "development"
	defaultShutdownGrace = 10 * time.Second
	defaultRateLimitRPS  = 10
	defaultRateBurst     = 20
	defaultRateClientTTL = 5 * time.Minute

	configFileEnv = "CONFIG_FILE"
)

// envKeys maps the supported environment variables onto koanf keys. Anything else is ignored.
var envKeys = map[string]string{
	"DB_DRIVER":             "db.driver",
	"DB_PATH":               "db.path",
	"DB_DSN":                "db.dsn",
	"SERVER_PORT":           "server_port",
	"LOG_LEVEL":             "log_level",
	"SENTRY_DSN":            "sentry_dsn",
	"ENV":                   "environment",
	"SHUTDOWN_GRACE":        "shutdown_grace",
	"RATE_LIMIT_RPS":        "rate_limit.requests_per_second",
	"RATE_LIMIT_BURST":      "rate_limit.burst",
	"RATE_LIMIT_CLIENT_TTL": "rate_limit.client_ttl",
}

var supportedDrivers = map[string]bool{
	"sqlite":   true,
	"postgres": true,
	"mysql":    true,
}

// Load reads configuration from an optional YAML file (CONFIG_FILE) and then environment
// variables, applying defaults for anything left unset.
func Load() (*Config, error) {
	k := koanf.New(".")

	if path := strings.TrimSpace(os.Getenv(configFileEnv)); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, eris.Wrapf(err, "loading config file: %s", path)
		}
	}

	envProvider := env.ProviderWithValue("", ".", func(key, value string) (string, interface{}) {
		mapped, ok := envKeys[key]
		if !ok || strings.TrimSpace(value) == "" {
			return "", nil
		}
		return mapped, strings.TrimSpace(value)
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, eris.Wrap(err, "loading environment variables")
	}

	cfg := defaults()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, eris.Wrap(err, "decoding configuration")
	}

	cfg.DB.Driver = strings.ToLower(strings.TrimSpace(cfg.DB.Driver))
	if !supportedDrivers[cfg.DB.Driver] {
		return nil, eris.Errorf("unsupported DB_DRIVER value: %s", cfg.DB.Driver)
	}
	if cfg.DB.Driver != defaultDBDriver && cfg.DB.DSN == "" {
		return nil, eris.Errorf("DB_DSN is required for driver %s", cfg.DB.Driver)
	}

	if cfg.ServerPort <= 0 || cfg.ServerPort > 65535 {
		return nil, eris.Errorf("invalid SERVER_PORT value: %d", cfg.ServerPort)
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		DB: DBConfig{
			Driver: defaultDBDriver,
			Path:   defaultDBPath,
		},
		ServerPort:    defaultServerPort,
		LogLevel:      defaultLogLevel,
		Environment:   defaultEnvironment,
		ShutdownGrace: defaultShutdownGrace,
		RateLimit: RateLimitConfig{
			RequestsPerSecond: defaultRateLimitRPS,
			Burst:             defaultRateBurst,
			ClientTTL:         defaultRateClientTTL,
		},
	}
}
