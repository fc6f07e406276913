package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/thenexusengine/tne_adbridge/internal/config"
)

// CORSConfig holds cross-origin settings. Games fetch their catalog from the
// browser, usually from a portal origin that differs from the ads endpoint.
type CORSConfig struct {
	AllowedOrigins []string // "*" allows any origin
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         int // Preflight cache in seconds
}

// DefaultCORSConfig allows GET from any origin
func DefaultCORSConfig() *CORSConfig {
	return &CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
		MaxAge:         config.CORSMaxAge,
	}
}

// CORS answers preflight requests and decorates responses
type CORS struct {
	config   *CORSConfig
	origins  map[string]bool
	allowAll bool
}

// NewCORS creates a new CORS middleware
func NewCORS(cfg *CORSConfig) *CORS {
	if cfg == nil {
		cfg = DefaultCORSConfig()
	}
	c := &CORS{config: cfg, origins: make(map[string]bool)}
	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			c.allowAll = true
			continue
		}
		c.origins[strings.ToLower(strings.TrimRight(o, "/"))] = true
	}
	return c
}

func (c *CORS) allowed(origin string) bool {
	return c.allowAll || c.origins[strings.ToLower(origin)]
}

// Middleware returns the CORS middleware handler
func (c *CORS) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Add("Vary", "Origin")
		if !c.allowed(origin) {
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		if c.allowAll {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.Header().Set("Access-Control-Allow-Methods", strings.Join(c.config.AllowedMethods, ", "))
			w.Header().Set("Access-Control-Allow-Headers", strings.Join(c.config.AllowedHeaders, ", "))
			w.Header().Set("Access-Control-Max-Age", strconv.Itoa(c.config.MaxAge))
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
