package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/thenexusengine/tne_adbridge/internal/config"
	"github.com/thenexusengine/tne_adbridge/pkg/logger"
)

// Request outcomes reported through Metrics
const (
	StatusOK          = "ok"
	StatusCacheHit    = "cache_hit"
	StatusError       = "error"
	StatusCircuitOpen = "circuit_open"
)

// CacheKeyPrefix namespaces catalog entries in Redis. The catalog server and
// the client share it.
const CacheKeyPrefix = "adbridge:catalog:"

// CacheKey returns the cache key for gameID
func CacheKey(gameID string) string {
	return CacheKeyPrefix + gameID
}

// Cache stores encoded catalog responses. Get returns "" on a miss.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// Metrics records catalog client activity
type Metrics interface {
	RecordCatalogRequest(status string, duration time.Duration)
	SetCatalogCircuitState(state int)
}

type nopMetrics struct{}

func (nopMetrics) RecordCatalogRequest(string, time.Duration) {}
func (nopMetrics) SetCatalogCircuitState(int)                 {}

// Options configures a Client. Zero values fall back to internal/config.
type Options struct {
	Timeout         time.Duration
	CacheTTL        time.Duration
	MaxResponseSize int64
	Cache           Cache
	Metrics         Metrics
	Breaker         *BreakerConfig
}

// Client fetches ad unit catalogs from the ads endpoint
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      Cache
	cacheTTL   time.Duration
	maxSize    int64
	metrics    Metrics
	breaker    *Breaker
}

// newTransport creates a connection-pooled transport for catalog requests.
// The endpoint is a single host and responses are small.
func newTransport(timeout time.Duration) *http.Transport {
	return &http.Transport{
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       config.CatalogIdleConnTimeout,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 500 * time.Millisecond,
	}
}

// NewClient creates a catalog client for baseURL (for example
// https://example.com/ads). Game IDs are appended as a path segment.
func NewClient(baseURL string, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = config.CatalogDefaultTimeout
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = config.CatalogCacheTTL
	}
	if opts.MaxResponseSize <= 0 {
		opts.MaxResponseSize = config.CatalogMaxResponseSize
	}
	if opts.Metrics == nil {
		opts.Metrics = nopMetrics{}
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: newTransport(opts.Timeout),
		},
		cache:    opts.Cache,
		cacheTTL: opts.CacheTTL,
		maxSize:  opts.MaxResponseSize,
		metrics:  opts.Metrics,
	}

	breakerCfg := DefaultBreakerConfig()
	if opts.Breaker != nil {
		copied := *opts.Breaker
		breakerCfg = &copied
	}
	userHook := breakerCfg.OnStateChange
	breakerCfg.OnStateChange = func(from, to State) {
		logger.Catalog().Warn().
			Str("from", from.String()).
			Str("to", to.String()).
			Str("endpoint", c.baseURL).
			Msg("Catalog circuit breaker state changed")
		c.metrics.SetCatalogCircuitState(int(to))
		if userHook != nil {
			userHook(from, to)
		}
	}
	c.breaker = NewBreaker(breakerCfg)
	c.metrics.SetCatalogCircuitState(int(StateClosed))
	return c
}

// FetchAdUnits returns the catalog for gameID, serving from the cache when
// possible. When the breaker is open it returns an error wrapping
// ErrCircuitOpen without touching the network.
func (c *Client) FetchAdUnits(ctx context.Context, gameID string) (*Response, error) {
	if gameID == "" {
		return nil, errors.New("catalog: game ID is empty")
	}
	start := time.Now()
	log := logger.Catalog().With().Str("game_id", gameID).Logger()

	if cached := c.fromCache(ctx, gameID); cached != nil {
		c.metrics.RecordCatalogRequest(StatusCacheHit, time.Since(start))
		return cached, nil
	}

	var result *Response
	err := c.breaker.Execute(func() error {
		resp, err := c.fetch(ctx, gameID)
		if err != nil {
			return err
		}
		result = resp
		return nil
	})

	switch {
	case errors.Is(err, ErrCircuitOpen):
		c.metrics.RecordCatalogRequest(StatusCircuitOpen, time.Since(start))
		return nil, fmt.Errorf("catalog fetch for game %s: %w", gameID, err)
	case err != nil:
		c.metrics.RecordCatalogRequest(StatusError, time.Since(start))
		log.Error().Err(err).Msg("Catalog fetch failed")
		return nil, err
	}

	c.metrics.RecordCatalogRequest(StatusOK, time.Since(start))
	c.toCache(ctx, gameID, result)
	log.Debug().Int("ad_units", len(result.Ads)).Msg("Catalog fetched")
	return result, nil
}

func (c *Client) fetch(ctx context.Context, gameID string) (*Response, error) {
	endpoint := c.baseURL + "/" + url.PathEscape(gameID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call catalog endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if errBody, err := io.ReadAll(io.LimitReader(resp.Body, 1024)); err == nil && len(errBody) > 0 {
			return nil, fmt.Errorf("catalog endpoint returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(errBody)))
		}
		return nil, fmt.Errorf("catalog endpoint returned status %d", resp.StatusCode)
	}

	var out Response
	if err := json.NewDecoder(io.LimitReader(resp.Body, c.maxSize)).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	return &out, nil
}

func (c *Client) fromCache(ctx context.Context, gameID string) *Response {
	if c.cache == nil {
		return nil
	}
	raw, err := c.cache.Get(ctx, CacheKey(gameID))
	if err != nil {
		logger.Catalog().Warn().Err(err).Str("game_id", gameID).Msg("Catalog cache read failed")
		return nil
	}
	if raw == "" {
		return nil
	}
	var resp Response
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		logger.Catalog().Warn().Err(err).Str("game_id", gameID).Msg("Discarding corrupt cached catalog")
		return nil
	}
	return &resp
}

func (c *Client) toCache(ctx context.Context, gameID string, resp *Response) {
	if c.cache == nil {
		return
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, CacheKey(gameID), string(raw), c.cacheTTL); err != nil {
		logger.Catalog().Warn().Err(err).Str("game_id", gameID).Msg("Catalog cache write failed")
	}
}

// BreakerStats returns the circuit breaker statistics
func (c *Client) BreakerStats() BreakerStats {
	return c.breaker.Stats()
}

// IsCircuitOpen returns true if the breaker is open
func (c *Client) IsCircuitOpen() bool {
	return c.breaker.State() == StateOpen
}

// ResetBreaker closes the circuit breaker
func (c *Client) ResetBreaker() {
	c.breaker.Reset()
}
