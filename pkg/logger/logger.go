// Package logger provides structured logging for adbridge
package logger

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ServiceName is attached to every log line
const ServiceName = "adbridge"

// Log is the global logger. Call Init before use to apply configuration.
var Log = zerolog.New(os.Stdout).With().Timestamp().Str("service", ServiceName).Logger()

type contextKey string

// RequestIDKey is the context key for HTTP request IDs
const RequestIDKey contextKey = "request_id"

// Config holds logger configuration
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json or console
	TimeFormat string
}

// DefaultConfig returns configuration from LOG_LEVEL and LOG_FORMAT
func DefaultConfig() Config {
	return Config{
		Level:      getEnv("LOG_LEVEL", "info"),
		Format:     getEnv("LOG_FORMAT", "json"),
		TimeFormat: time.RFC3339,
	}
}

// Init configures the global logger
func Init(cfg Config) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	if cfg.TimeFormat != "" {
		zerolog.TimeFieldFormat = cfg.TimeFormat
	}

	var out zerolog.Logger
	if cfg.Format == "console" {
		out = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: cfg.TimeFormat})
	} else {
		out = zerolog.New(os.Stdout)
	}

	Log = out.Level(level).With().Timestamp().Str("service", ServiceName).Logger()
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// FromContext returns a logger carrying the request ID stored in ctx
func FromContext(ctx context.Context) *zerolog.Logger {
	l := Log.With()
	if v, ok := ctx.Value(RequestIDKey).(string); ok && v != "" {
		l = l.Str(string(RequestIDKey), v)
	}
	logger := l.Logger()
	return &logger
}

// Ads returns a logger for the ad lifecycle engine
func Ads() *zerolog.Logger {
	l := Log.With().Str("component", "ads").Logger()
	return &l
}

// Platform returns a logger for a platform strategy
func Platform(code string) *zerolog.Logger {
	l := Log.With().Str("component", "ads").Str("platform", code).Logger()
	return &l
}

// Catalog returns a logger for ad unit catalog operations
func Catalog() *zerolog.Logger {
	l := Log.With().Str("component", "catalog").Logger()
	return &l
}

// HTTP returns a logger for HTTP handling
func HTTP() *zerolog.Logger {
	l := Log.With().Str("component", "http").Logger()
	return &l
}

// RequestLogger tracks a single HTTP request
type RequestLogger struct {
	logger zerolog.Logger
	start  time.Time
}

// NewRequestLogger creates a logger bound to requestID
func NewRequestLogger(requestID string) *RequestLogger {
	return &RequestLogger{
		logger: Log.With().Str("request_id", requestID).Logger(),
		start:  time.Now(),
	}
}

// Info logs at info level
func (r *RequestLogger) Info(msg string) {
	r.logger.Info().Msg(msg)
}

// Error logs at error level with err attached
func (r *RequestLogger) Error(msg string, err error) {
	r.logger.Error().Err(err).Msg(msg)
}

// WithField returns a copy of the logger with an extra field
func (r *RequestLogger) WithField(key string, value interface{}) *RequestLogger {
	return &RequestLogger{
		logger: r.logger.With().Interface(key, value).Logger(),
		start:  r.start,
	}
}

// Duration returns the time since the request logger was created
func (r *RequestLogger) Duration() time.Duration {
	return time.Since(r.start)
}

// LogComplete logs request completion with status and duration. 4xx
// responses log at warn and 5xx at error.
func (r *RequestLogger) LogComplete(status int) {
	event := r.logger.Info()
	switch {
	case status >= 500:
		event = r.logger.Error()
	case status >= 400:
		event = r.logger.Warn()
	}
	event.
		Int("status", status).
		Dur("duration_ms", r.Duration()).
		Msg("request completed")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
