package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL            string `yaml:"url"`
	MaxConns       int32  `yaml:"max_conns"`
	MigrationsPath string `yaml:"migrations_path"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type PaymentConfig struct {
	SSLCommerz struct {
		Sandbox    bool   `yaml:"sandbox"`
		SuccessURL string `yaml:"success_url"`
		FailURL    string `yaml:"fail_url"`
		CancelURL  string `yaml:"cancel_url"`
	} `yaml:"sslcommerz"`
}

type SweeperConfig struct {
	// DailySpec is the cron schedule the per-tenant sweep runs on, evaluated
	// in each gym's timezone.
	DailySpec string `yaml:"daily_spec"`
	// PendingInterval is how often the pending-transaction expirer ticks,
	// as a Go duration string ("1m", "30s").
	PendingInterval string `yaml:"pending_interval"`

	pendingInterval time.Duration
}

// PendingTick returns the parsed expirer interval.
func (s SweeperConfig) PendingTick() time.Duration { return s.pendingInterval }

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Payment  PaymentConfig  `yaml:"payment"`
	Sweeper  SweeperConfig  `yaml:"sweeper"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.Database.MigrationsPath == "" {
		cfg.Database.MigrationsPath = "migrations"
	}
	if cfg.Sweeper.DailySpec == "" {
		cfg.Sweeper.DailySpec = "0 2 * * *"
	}
	if cfg.Sweeper.PendingInterval == "" {
		cfg.Sweeper.PendingInterval = "1m"
	}
	d, err := time.ParseDuration(cfg.Sweeper.PendingInterval)
	if err != nil || d <= 0 {
		return nil, fmt.Errorf("sweeper.pending_interval: invalid duration %q", cfg.Sweeper.PendingInterval)
	}
	cfg.Sweeper.pendingInterval = d

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
