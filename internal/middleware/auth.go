// Package middleware provides HTTP middleware for the catalog service
package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"sync"

	"github.com/thenexusengine/tne_adbridge/pkg/logger"
)

// AuthConfig holds admin API key configuration
type AuthConfig struct {
	Enabled    bool
	APIKeys    map[string]string // key -> operator name
	HeaderName string            // Header to check for API key (default: X-API-Key)
}

// ParseAPIKeys parses "key1:name1,key2:name2". A key without a name maps to
// "default".
func ParseAPIKeys(value string) map[string]string {
	keys := make(map[string]string)
	for _, pair := range strings.Split(value, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		key := strings.TrimSpace(parts[0])
		if key == "" {
			continue
		}
		name := "default"
		if len(parts) == 2 && strings.TrimSpace(parts[1]) != "" {
			name = strings.TrimSpace(parts[1])
		}
		keys[key] = name
	}
	return keys
}

// AuthMetrics defines the metrics interface for auth middleware
type AuthMetrics interface {
	IncAuthFailures()
}

// Auth guards the ad unit admin routes with API keys
type Auth struct {
	mu      sync.RWMutex
	config  *AuthConfig
	metrics AuthMetrics
}

// NewAuth creates a new Auth middleware
func NewAuth(config *AuthConfig) *Auth {
	if config == nil {
		config = &AuthConfig{}
	}
	if config.HeaderName == "" {
		config.HeaderName = "X-API-Key"
	}
	if config.APIKeys == nil {
		config.APIKeys = map[string]string{}
	}
	return &Auth{config: config}
}

// Middleware returns the authentication middleware handler. When auth is
// enabled with no keys configured every request is rejected.
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.mu.RLock()
		enabled := a.config.Enabled
		headerName := a.config.HeaderName
		a.mu.RUnlock()

		if !enabled {
			next.ServeHTTP(w, r)
			return
		}

		apiKey := r.Header.Get(headerName)
		if apiKey == "" {
			if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				apiKey = strings.TrimPrefix(auth, "Bearer ")
			}
		}

		if apiKey == "" {
			a.recordFailure()
			http.Error(w, `{"error":"missing API key"}`, http.StatusUnauthorized)
			return
		}

		operator, ok := a.validateKey(apiKey)
		if !ok {
			a.recordFailure()
			logger.HTTP().Warn().Str("path", r.URL.Path).Msg("Rejected admin request with invalid API key")
			http.Error(w, `{"error":"invalid API key"}`, http.StatusForbidden)
			return
		}

		r.Header.Set("X-Operator", operator)
		next.ServeHTTP(w, r)
	})
}

func (a *Auth) validateKey(key string) (string, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	for candidate, operator := range a.config.APIKeys {
		if subtle.ConstantTimeCompare([]byte(candidate), []byte(key)) == 1 {
			return operator, true
		}
	}
	return "", false
}

// AddAPIKey registers a key at runtime
func (a *Auth) AddAPIKey(key, operator string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.config.APIKeys[key] = operator
}

// RemoveAPIKey revokes a key
func (a *Auth) RemoveAPIKey(key string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.config.APIKeys, key)
}

// SetEnabled enables or disables authentication
func (a *Auth) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.config.Enabled = enabled
}

// IsEnabled returns whether authentication is enabled
func (a *Auth) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.config.Enabled
}

// SetMetrics sets the metrics interface for auth failures
func (a *Auth) SetMetrics(m AuthMetrics) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.metrics = m
}

func (a *Auth) recordFailure() {
	a.mu.RLock()
	m := a.metrics
	a.mu.RUnlock()
	if m != nil {
		m.IncAuthFailures()
	}
}
