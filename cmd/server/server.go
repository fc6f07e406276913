package main

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	abconfig "github.com/thenexusengine/tne_adbridge/internal/config"
	"github.com/thenexusengine/tne_adbridge/internal/endpoints"
	"github.com/thenexusengine/tne_adbridge/internal/metrics"
	"github.com/thenexusengine/tne_adbridge/internal/middleware"
	"github.com/thenexusengine/tne_adbridge/internal/storage"
	"github.com/thenexusengine/tne_adbridge/pkg/logger"
	"github.com/thenexusengine/tne_adbridge/pkg/redis"
)

// Server serves the ad unit catalog and its admin API
type Server struct {
	config      *ServerConfig
	httpServer  *http.Server
	metrics     *metrics.Metrics
	rateLimiter *middleware.RateLimiter
	auth        *middleware.Auth
	db          *sql.DB
	store       *storage.AdUnitStore
	redisClient *redis.Client
}

// NewServer creates a new catalog server with metrics on the default registry
func NewServer(cfg *ServerConfig) (*Server, error) {
	return newServer(cfg, prometheus.DefaultRegisterer)
}

func newServer(cfg *ServerConfig, reg prometheus.Registerer) (*Server, error) {
	s := &Server{
		config: cfg,
	}

	if err := s.initialize(reg); err != nil {
		return nil, err
	}

	return s, nil
}

// initialize sets up all server components
func (s *Server) initialize(reg prometheus.Registerer) error {
	log := logger.Log

	log.Info().
		Str("port", s.config.Port).
		Str("version", s.config.Version).
		Dur("cache_ttl", s.config.CatalogCacheTTL).
		Msg("Initializing adbridge catalog server")

	s.metrics = metrics.NewMetricsWithRegistry("adbridge", reg)
	log.Info().Msg("Prometheus metrics enabled")

	// Database failures are non-fatal: the catalog endpoint answers 503
	if err := s.initDatabase(); err != nil {
		log.Warn().Err(err).Msg("Database initialization failed, continuing with reduced functionality")
	}

	// Redis failures are non-fatal: catalogs are read straight from storage
	if err := s.initRedis(); err != nil {
		log.Warn().Err(err).Msg("Redis initialization failed, continuing with reduced functionality")
	}

	s.initMiddleware()
	s.initHandlers()

	return nil
}

// initDatabase connects to PostgreSQL and optionally creates the schema
func (s *Server) initDatabase() error {
	log := logger.Log

	if !s.config.Database.Enabled() {
		log.Info().Msg("DB_HOST not set, catalog storage disabled")
		return nil
	}

	db, err := storage.NewDBConnection(s.config.Database.ToStorageConfig())
	if err != nil {
		return err
	}
	s.db = db
	s.store = storage.NewAdUnitStore(db)

	if s.config.Migrate {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.store.Migrate(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to create ad_units schema")
		} else {
			log.Info().Msg("ad_units schema ready")
		}
	}

	log.Info().Str("host", s.config.Database.Host).Msg("PostgreSQL connected")
	return nil
}

// initRedis initializes the catalog cache
func (s *Server) initRedis() error {
	log := logger.Log

	if s.config.RedisURL == "" {
		log.Info().Msg("REDIS_URL not set, catalog cache disabled")
		return nil
	}

	client, err := redis.New(s.config.RedisURL)
	if err != nil {
		return err
	}
	s.redisClient = client

	log.Info().Msg("Redis client initialized")
	return nil
}

// initMiddleware initializes the stateful middleware components
func (s *Server) initMiddleware() {
	log := logger.Log

	rlCfg := middleware.DefaultRateLimitConfig()
	rlCfg.Enabled = s.config.RateLimitEnabled
	rlCfg.RequestsPerSecond = s.config.RateLimitRPS
	rlCfg.BurstSize = s.config.RateLimitBurst
	rlCfg.TrustedProxies = middleware.ParseTrustedProxies(s.config.TrustedProxies)
	s.rateLimiter = middleware.NewRateLimiter(rlCfg)
	s.rateLimiter.SetMetrics(s.metrics)

	s.auth = middleware.NewAuth(&middleware.AuthConfig{
		Enabled: s.config.AuthEnabled,
		APIKeys: middleware.ParseAPIKeys(s.config.AdminAPIKeys),
	})
	s.auth.SetMetrics(s.metrics)

	if s.auth.IsEnabled() && s.config.AdminAPIKeys == "" {
		log.Warn().Msg("Admin auth enabled without ADMIN_API_KEYS, admin routes will reject every request")
	}

	log.Info().
		Bool("rate_limiting_enabled", rlCfg.Enabled).
		Int("rps", rlCfg.RequestsPerSecond).
		Int("burst", rlCfg.BurstSize).
		Bool("auth_enabled", s.auth.IsEnabled()).
		Msg("Middleware initialized")
}

// initHandlers initializes HTTP handlers and builds the handler chain
func (s *Server) initHandlers() {
	catalogHandler := endpoints.NewCatalogHandler(s.catalogStore(), s.catalogCache(), s.config.CatalogCacheTTL)
	catalogHandler.SetMetrics(s.metrics)
	admin := endpoints.NewAdUnitAdminHandler(s.adUnitWriter(), s.catalogCache())

	mux := http.NewServeMux()
	mux.Handle("GET /ads/{gameID}", catalogHandler)
	mux.Handle("POST /admin/ad-units", s.auth.Middleware(http.HandlerFunc(admin.Create)))
	mux.Handle("DELETE /admin/games/{gameID}/ad-units/{id}", s.auth.Middleware(http.HandlerFunc(admin.Delete)))
	mux.Handle("GET /health", endpoints.HealthHandler(s.config.Version))
	mux.Handle("GET /health/ready", endpoints.ReadyHandler(s.readinessChecks()))
	mux.Handle("GET /metrics", metrics.Handler())

	s.httpServer = &http.Server{
		Addr:         ":" + s.config.Port,
		Handler:      s.buildHandler(mux),
		ReadTimeout:  abconfig.ServerReadTimeout,
		WriteTimeout: abconfig.ServerWriteTimeout,
		IdleTimeout:  abconfig.ServerIdleTimeout,
	}
}

// buildHandler builds the middleware chain:
// CORS -> Logging -> Size Limit -> Rate Limit -> Metrics -> Handler
func (s *Server) buildHandler(mux *http.ServeMux) http.Handler {
	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = s.config.CORSOrigins
	cors := middleware.NewCORS(corsCfg)
	sizeLimiter := middleware.NewSizeLimiter(middleware.DefaultSizeLimitConfig())

	handler := http.Handler(mux)
	handler = s.metrics.Middleware(handler)
	handler = s.rateLimiter.Middleware(handler)
	handler = sizeLimiter.Middleware(handler)
	handler = loggingMiddleware(handler)
	handler = cors.Middleware(handler)

	logger.Log.Info().
		Strs("cors_origins", corsCfg.AllowedOrigins).
		Msg("Middleware chain built")

	return handler
}

// The endpoints take interfaces; a nil pointer must stay a nil interface so
// the handlers can detect a missing dependency.

func (s *Server) catalogStore() endpoints.CatalogStore {
	if s.store == nil {
		return nil
	}
	return s.store
}

func (s *Server) adUnitWriter() endpoints.AdUnitWriter {
	if s.store == nil {
		return nil
	}
	return s.store
}

func (s *Server) catalogCache() endpoints.CatalogCache {
	if s.redisClient == nil {
		return nil
	}
	return s.redisClient
}

func (s *Server) readinessChecks() map[string]endpoints.Pinger {
	checks := map[string]endpoints.Pinger{"postgres": nil, "redis": nil}
	if s.store != nil {
		checks["postgres"] = s.store
	}
	if s.redisClient != nil {
		checks["redis"] = s.redisClient
	}
	return checks
}

// Handler returns the full middleware chain
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log := logger.Log
	log.Info().Str("addr", s.httpServer.Addr).Msg("Server listening")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown performs graceful shutdown
func (s *Server) Shutdown(ctx context.Context) error {
	log := logger.Log
	log.Info().Msg("Starting graceful shutdown")

	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Warn().Err(err).Msg("Error closing Redis client")
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			log.Warn().Err(err).Msg("Error closing database")
		}
	}

	log.Info().Msg("Server stopped gracefully")
	return nil
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs HTTP requests with structured logging
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		rl := logger.NewRequestLogger(requestID).
			WithField("method", r.Method).
			WithField("path", r.URL.Path).
			WithField("remote_addr", r.RemoteAddr).
			WithField("user_agent", r.UserAgent())

		next.ServeHTTP(wrapped, r.WithContext(logger.WithRequestID(r.Context(), requestID)))

		rl.LogComplete(wrapped.statusCode)
	})
}
