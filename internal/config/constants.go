// Package config provides shared configuration constants for adbridge
package config

import "time"

// Ad lifecycle defaults
const (
	// PrerollWindow is how long after session start a preroll may still be requested
	PrerollWindow = 10 * time.Second

	// DebugAdDuration is how long the debug platform's synthetic ad "plays"
	DebugAdDuration = 2 * time.Second

	// DefaultWatchdog disables the in-flight watchdog
	DefaultWatchdog time.Duration = 0
)

// Server timeout defaults
const (
	// ServerReadTimeout is the maximum duration for reading the entire request
	ServerReadTimeout = 5 * time.Second

	// ServerWriteTimeout is the maximum duration before timing out writes of the response
	ServerWriteTimeout = 10 * time.Second

	// ServerIdleTimeout is the maximum time to wait for the next request when keep-alives are enabled
	ServerIdleTimeout = 120 * time.Second

	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout = 30 * time.Second
)

// CORS defaults
const (
	// CORSMaxAge is the preflight cache duration in seconds (24 hours)
	CORSMaxAge = 86400
)

// Rate limiting defaults
const (
	// DefaultRPS is the default catalog requests per second limit
	DefaultRPS = 200

	// DefaultBurstSize is the default burst size for rate limiting
	DefaultBurstSize = 50
)

// Catalog client defaults
const (
	// CatalogDefaultTimeout is the default timeout for catalog requests
	CatalogDefaultTimeout = 3 * time.Second

	// CatalogMaxResponseSize is the maximum catalog response size (256KB)
	CatalogMaxResponseSize = 256 * 1024

	// CatalogCacheTTL is how long catalog responses are cached in Redis
	CatalogCacheTTL = 5 * time.Minute

	// CatalogIdleConnTimeout is how long to keep idle connections
	CatalogIdleConnTimeout = 90 * time.Second
)

// Redis defaults
const (
	// RedisPoolSize is the default connection pool size
	RedisPoolSize = 20
)

// Database defaults
const (
	// DBMaxOpenConns is the maximum number of open Postgres connections
	DBMaxOpenConns = 10

	// DBMaxIdleConns is the maximum number of idle Postgres connections
	DBMaxIdleConns = 5

	// DBConnMaxLifetime is the maximum lifetime of a Postgres connection
	DBConnMaxLifetime = 5 * time.Minute

	// DBQueryTimeout bounds every catalog query
	DBQueryTimeout = 2 * time.Second
)
