package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config struct to hold the configuration settings
type Config struct {
	Postgres      PostgresConfig      `yaml:"postgres"`
	NATS          NATSConfig          `yaml:"nats"`
	EventBus      EventBusConfig      `yaml:"event_bus"`
	HTTP          HTTPConfig          `yaml:"http"`
	Cache         CacheConfig         `yaml:"cache"`
	Scheduler     SchedulerConfig     `yaml:"scheduler"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// NATSConfig holds NATS configuration. Only consulted when the event bus
// backend is "jetstream".
type NATSConfig struct {
	URL string `yaml:"url"`
}

// Event bus backends.
const (
	EventBusMemory    = "memory"
	EventBusJetStream = "jetstream"
)

// EventBusConfig selects the pub/sub backend: "memory" (in-process, default)
// or "jetstream".
type EventBusConfig struct {
	Backend string `yaml:"backend"`
}

// HTTPConfig holds the API listener configuration.
type HTTPConfig struct {
	Address        string        `yaml:"address"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// CacheConfig holds leaderboard cache tuning.
type CacheConfig struct {
	Disabled bool          `yaml:"disabled"`
	TTL      time.Duration `yaml:"ttl"`
}

// SchedulerConfig holds the periodic job settings.
type SchedulerConfig struct {
	CacheSweepInterval       time.Duration `yaml:"cache_sweep_interval"`
	AchievementSweepInterval time.Duration `yaml:"achievement_sweep_interval"`
	RollupExportDir          string        `yaml:"rollup_export_dir"`
}

// ObservabilityConfig holds configuration for observability components
type ObservabilityConfig struct {
	MetricsAddress string `yaml:"metrics_address"`
	Environment    string `yaml:"environment"`
}

// LoadConfig loads the configuration from a YAML file, falling back to
// environment variables when the file is absent. Env vars always win.
func LoadConfig(filename string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(filename)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("EVENT_BUS_BACKEND"); v != "" {
		cfg.EventBus.Backend = v
	}
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.HTTP.RequestTimeout = d
		}
	}
	if v := os.Getenv("CACHE_DISABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Cache.Disabled = b
		}
	}
	if v := os.Getenv("CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.TTL = d
		}
	}
	if v := os.Getenv("CACHE_SWEEP_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Scheduler.CacheSweepInterval = d
		}
	}
	if v := os.Getenv("ACHIEVEMENT_SWEEP_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Scheduler.AchievementSweepInterval = d
		}
	}
	if v := os.Getenv("ROLLUP_EXPORT_DIR"); v != "" {
		cfg.Scheduler.RollupExportDir = v
	}
	if v := os.Getenv("METRICS_ADDRESS"); v != "" {
		cfg.Observability.MetricsAddress = v
	}
	if v := os.Getenv("ENV"); v != "" {
		cfg.Observability.Environment = v
	}

	applyDefaults(&cfg)

	if cfg.Postgres.DSN == "" {
		return nil, fmt.Errorf("postgres DSN not set (config file or DATABASE_URL)")
	}
	if cfg.EventBus.Backend == "jetstream" && cfg.NATS.URL == "" {
		return nil, fmt.Errorf("NATS_URL required when event bus backend is jetstream")
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.EventBus.Backend == "" {
		cfg.EventBus.Backend = EventBusMemory
	}
	if cfg.HTTP.Address == "" {
		cfg.HTTP.Address = ":8080"
	}
	if cfg.HTTP.RequestTimeout == 0 {
		cfg.HTTP.RequestTimeout = 10 * time.Second
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = time.Hour
	}
	if cfg.Scheduler.CacheSweepInterval == 0 {
		cfg.Scheduler.CacheSweepInterval = time.Hour
	}
	if cfg.Scheduler.AchievementSweepInterval == 0 {
		cfg.Scheduler.AchievementSweepInterval = 24 * time.Hour
	}
}
