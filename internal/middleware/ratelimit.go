package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/thenexusengine/tne_adbridge/internal/config"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond int           // Sustained requests per second per client IP
	BurstSize         int           // Bucket capacity
	CleanupInterval   time.Duration // How often idle clients are dropped; 0 disables cleanup
	TrustedProxies    []*net.IPNet  // Proxies whose X-Forwarded-For is honoured
}

// DefaultRateLimitConfig returns the catalog endpoint defaults
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		Enabled:           true,
		RequestsPerSecond: config.DefaultRPS,
		BurstSize:         config.DefaultBurstSize,
		CleanupInterval:   time.Minute,
	}
}

// ParseTrustedProxies parses comma-separated CIDRs. Bare IPs get a /32 or
// /128 mask; invalid entries are skipped.
func ParseTrustedProxies(value string) []*net.IPNet {
	var networks []*net.IPNet
	for _, cidr := range strings.Split(value, ",") {
		cidr = strings.TrimSpace(cidr)
		if cidr == "" {
			continue
		}
		if !strings.Contains(cidr, "/") {
			if strings.Contains(cidr, ":") {
				cidr += "/128"
			} else {
				cidr += "/32"
			}
		}
		if _, network, err := net.ParseCIDR(cidr); err == nil {
			networks = append(networks, network)
		}
	}
	return networks
}

type bucket struct {
	tokens   float64
	lastSeen time.Time
}

// RateLimitMetrics defines the metrics interface for rate limiter
type RateLimitMetrics interface {
	IncRateLimitRejected()
}

// RateLimiter is a per-client token bucket. Game clients poll the catalog on
// boot, so buckets are keyed by client IP.
type RateLimiter struct {
	config  *RateLimitConfig
	now     func() time.Time
	mu      sync.Mutex
	clients map[string]*bucket
	metrics RateLimitMetrics
	stopCh  chan struct{}
	stopped sync.Once
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(cfg *RateLimitConfig) *RateLimiter {
	if cfg == nil {
		cfg = DefaultRateLimitConfig()
	}
	rl := &RateLimiter{
		config:  cfg,
		now:     time.Now,
		clients: make(map[string]*bucket),
		stopCh:  make(chan struct{}),
	}
	if cfg.CleanupInterval > 0 {
		go rl.cleanup()
	}
	return rl
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.evictIdle(rl.config.CleanupInterval)
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *RateLimiter) evictIdle(idle time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	for key, b := range rl.clients {
		if now.Sub(b.lastSeen) > idle {
			delete(rl.clients, key)
		}
	}
}

// Stop stops the cleanup goroutine. Safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopped.Do(func() { close(rl.stopCh) })
}

// Middleware returns the rate limiting middleware handler
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rl.mu.Lock()
		enabled := rl.config.Enabled
		limit := strconv.Itoa(rl.config.RequestsPerSecond)
		rl.mu.Unlock()

		if !enabled {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", limit)
		if !rl.allow(rl.clientIP(r)) {
			rl.mu.Lock()
			m := rl.metrics
			rl.mu.Unlock()
			if m != nil {
				m.IncRateLimitRejected()
			}
			w.Header().Set("Retry-After", "1")
			w.Header().Set("X-RateLimit-Remaining", "0")
			http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(clientID string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	burst := float64(rl.config.BurstSize)
	b, ok := rl.clients[clientID]
	if !ok {
		rl.clients[clientID] = &bucket{tokens: burst - 1, lastSeen: now}
		return true
	}

	b.tokens += now.Sub(b.lastSeen).Seconds() * float64(rl.config.RequestsPerSecond)
	if b.tokens > burst {
		b.tokens = burst
	}
	b.lastSeen = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// clientIP returns RemoteAddr unless it is a trusted proxy, in which case the
// rightmost untrusted X-Forwarded-For entry wins
func (rl *RateLimiter) clientIP(r *http.Request) string {
	remote := extractIP(r.RemoteAddr)
	if !rl.isTrustedProxy(remote) {
		return remote
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			ip := strings.TrimSpace(hops[i])
			if ip != "" && !rl.isTrustedProxy(ip) {
				return ip
			}
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	return remote
}

func (rl *RateLimiter) isTrustedProxy(ipStr string) bool {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}
	for _, network := range rl.config.TrustedProxies {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// extractIP strips the port from host:port, including bracketed IPv6
func extractIP(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return strings.Trim(addr, "[]")
}

// SetEnabled enables or disables rate limiting
func (rl *RateLimiter) SetEnabled(enabled bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.config.Enabled = enabled
}

// SetMetrics sets the metrics interface for the rate limiter
func (rl *RateLimiter) SetMetrics(m RateLimitMetrics) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.metrics = m
}
