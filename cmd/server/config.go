package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/thenexusengine/tne_adbridge/internal/config"
	"github.com/thenexusengine/tne_adbridge/internal/storage"
)

// ServerConfig holds all server configuration
type ServerConfig struct {
	// Server
	Port    string `env:"ADBRIDGE_PORT" envDefault:"8080"`
	Version string `env:"ADBRIDGE_VERSION" envDefault:"1.0.0"`

	// Database
	Database DatabaseConfig `envPrefix:"DB_"`
	Migrate  bool           `env:"DB_MIGRATE" envDefault:"false"`

	// Redis
	RedisURL        string        `env:"REDIS_URL"`
	CatalogCacheTTL time.Duration `env:"CATALOG_CACHE_TTL" envDefault:"5m"`

	// Admin API
	AuthEnabled  bool   `env:"ADMIN_AUTH_ENABLED" envDefault:"true"`
	AdminAPIKeys string `env:"ADMIN_API_KEYS"`

	// Rate limiting
	RateLimitEnabled bool   `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitRPS     int    `env:"RATE_LIMIT_RPS"`
	RateLimitBurst   int    `env:"RATE_LIMIT_BURST"`
	TrustedProxies   string `env:"TRUSTED_PROXIES"`

	// CORS
	CORSOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

// DatabaseConfig holds database connection configuration. An empty Host
// disables the database.
type DatabaseConfig struct {
	Host     string `env:"HOST"`
	Port     string `env:"PORT" envDefault:"5432"`
	User     string `env:"USER" envDefault:"adbridge"`
	Password string `env:"PASSWORD"`
	Name     string `env:"NAME" envDefault:"adbridge"`
	SSLMode  string `env:"SSL_MODE" envDefault:"disable"`
}

// Enabled reports whether a database host is configured
func (d DatabaseConfig) Enabled() bool {
	return d.Host != ""
}

// ToStorageConfig converts DatabaseConfig to storage.DBConfig
func (d DatabaseConfig) ToStorageConfig() storage.DBConfig {
	return storage.DBConfig{
		Host:     d.Host,
		Port:     d.Port,
		User:     d.User,
		Password: d.Password,
		Name:     d.Name,
		SSLMode:  d.SSLMode,
	}
}

// ParseConfig parses configuration from environment variables, then applies
// command line flags over it
func ParseConfig(args []string) (*ServerConfig, error) {
	cfg := &ServerConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = config.DefaultRPS
	}
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = config.DefaultBurstSize
	}

	fs := flag.NewFlagSet("adbridge-server", flag.ContinueOnError)
	fs.StringVar(&cfg.Port, "port", cfg.Port, "Server port")
	fs.BoolVar(&cfg.Migrate, "migrate", cfg.Migrate, "Create the ad_units schema on startup")
	fs.DurationVar(&cfg.CatalogCacheTTL, "cache-ttl", cfg.CatalogCacheTTL, "Catalog cache TTL")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.CatalogCacheTTL < 0 {
		return nil, fmt.Errorf("catalog cache TTL must not be negative, got %s", cfg.CatalogCacheTTL)
	}
	return cfg, nil
}
