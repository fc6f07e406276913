package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/thenexusengine/tne_adbridge/pkg/redis"
)

type recordingMetrics struct {
	mu       sync.Mutex
	statuses []string
	state    int
}

func (m *recordingMetrics) RecordCatalogRequest(status string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses = append(m.statuses, status)
}

func (m *recordingMetrics) SetCatalogCircuitState(state int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state
}

func (m *recordingMetrics) last() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.statuses) == 0 {
		return ""
	}
	return m.statuses[len(m.statuses)-1]
}

const sampleCatalog = `{"gameID":68,"ads":[` +
	`{"display_format":"interstitial","placement_id":"1284783688986969_1317853085680029"},` +
	`{"display_format":"rewarded_video","placement_id":"1284783688986969_1317853085680030"}]}`

func catalogServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		if r.URL.Path != "/ads/68" {
			http.Error(w, "unknown game", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleCatalog))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestFetchAdUnits_Success(t *testing.T) {
	var hits int32
	server := catalogServer(t, &hits)
	metrics := &recordingMetrics{}

	client := NewClient(server.URL+"/ads/", Options{Metrics: metrics})
	resp, err := client.FetchAdUnits(context.Background(), "68")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if resp.GameID != 68 {
		t.Errorf("Expected gameID 68, got %d", resp.GameID)
	}
	if len(resp.Ads) != 2 {
		t.Fatalf("Expected 2 ad units, got %d", len(resp.Ads))
	}
	if resp.Ads[1].DisplayFormat != FormatRewardedVideo {
		t.Errorf("Expected rewarded_video, got %s", resp.Ads[1].DisplayFormat)
	}
	if metrics.last() != StatusOK {
		t.Errorf("Expected status %s, got %s", StatusOK, metrics.last())
	}
}

func TestFetchAdUnits_EmptyGameID(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", Options{})
	if _, err := client.FetchAdUnits(context.Background(), ""); err == nil {
		t.Error("Expected error for empty game ID")
	}
}

func TestFetchAdUnits_Non200IncludesBody(t *testing.T) {
	var hits int32
	server := catalogServer(t, &hits)

	client := NewClient(server.URL+"/ads", Options{})
	_, err := client.FetchAdUnits(context.Background(), "99")
	if err == nil {
		t.Fatal("Expected error for 404")
	}
	if !strings.Contains(err.Error(), "404") || !strings.Contains(err.Error(), "unknown game") {
		t.Errorf("Expected status and body in error, got %v", err)
	}
}

func TestFetchAdUnits_MalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"gameID":`))
	}))
	defer server.Close()

	client := NewClient(server.URL, Options{})
	if _, err := client.FetchAdUnits(context.Background(), "68"); err == nil {
		t.Error("Expected decode error")
	}
}

func TestFetchAdUnits_ResponseSizeLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleCatalog))
	}))
	defer server.Close()

	client := NewClient(server.URL, Options{MaxResponseSize: 16})
	if _, err := client.FetchAdUnits(context.Background(), "68"); err == nil {
		t.Error("Expected truncated response to fail decoding")
	}
}

func TestFetchAdUnits_CircuitOpensAndFailsFast(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	metrics := &recordingMetrics{}
	client := NewClient(server.URL, Options{
		Metrics: metrics,
		Breaker: &BreakerConfig{FailureThreshold: 2, SuccessThreshold: 1, Cooldown: time.Hour},
	})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := client.FetchAdUnits(ctx, "68"); err == nil {
			t.Fatal("Expected upstream error")
		}
	}
	if !client.IsCircuitOpen() {
		t.Fatal("Expected circuit to be open")
	}

	_, err := client.FetchAdUnits(ctx, "68")
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("Expected ErrCircuitOpen, got %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Errorf("Expected 2 upstream hits, got %d", got)
	}
	if metrics.last() != StatusCircuitOpen {
		t.Errorf("Expected status %s, got %s", StatusCircuitOpen, metrics.last())
	}
	if metrics.state != int(StateOpen) {
		t.Errorf("Expected circuit gauge %d, got %d", StateOpen, metrics.state)
	}

	client.ResetBreaker()
	if client.IsCircuitOpen() {
		t.Error("Expected circuit closed after reset")
	}
}

func newRedisCache(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	cache, err := redis.New("redis://" + mr.Addr())
	if err != nil {
		mr.Close()
		t.Fatalf("Failed to create redis client: %v", err)
	}
	t.Cleanup(func() {
		cache.Close()
		mr.Close()
	})
	return mr, cache
}

func TestFetchAdUnits_ServesFromCache(t *testing.T) {
	var hits int32
	server := catalogServer(t, &hits)
	mr, cache := newRedisCache(t)
	metrics := &recordingMetrics{}

	client := NewClient(server.URL+"/ads", Options{Cache: cache, CacheTTL: time.Minute, Metrics: metrics})
	ctx := context.Background()

	first, err := client.FetchAdUnits(ctx, "68")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	second, err := client.FetchAdUnits(ctx, "68")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("Expected 1 upstream hit, got %d", got)
	}
	if len(second.Ads) != len(first.Ads) || second.Ads[0].PlacementID != first.Ads[0].PlacementID {
		t.Errorf("Expected cached catalog to match, got %+v", second)
	}
	if metrics.last() != StatusCacheHit {
		t.Errorf("Expected status %s, got %s", StatusCacheHit, metrics.last())
	}
	if ttl := mr.TTL(CacheKey("68")); ttl != time.Minute {
		t.Errorf("Expected TTL 1m, got %v", ttl)
	}

	mr.FastForward(2 * time.Minute)
	if _, err := client.FetchAdUnits(ctx, "68"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Errorf("Expected refetch after expiry, got %d hits", got)
	}
}

func TestFetchAdUnits_CacheBypassesOpenCircuit(t *testing.T) {
	mr, cache := newRedisCache(t)
	raw, _ := json.Marshal(Response{GameID: 7, Ads: []AdUnit{{DisplayFormat: FormatBanner, PlacementID: "b1"}}})
	if err := mr.Set(CacheKey("7"), string(raw)); err != nil {
		t.Fatalf("Failed to seed cache: %v", err)
	}

	client := NewClient("http://127.0.0.1:1", Options{
		Cache:   cache,
		Breaker: &BreakerConfig{FailureThreshold: 1, SuccessThreshold: 1, Cooldown: time.Hour},
	})
	_, _ = client.FetchAdUnits(context.Background(), "8")
	if !client.IsCircuitOpen() {
		t.Fatal("Expected circuit to be open")
	}

	resp, err := client.FetchAdUnits(context.Background(), "7")
	if err != nil {
		t.Fatalf("Expected cached response, got %v", err)
	}
	if resp.GameID != 7 || resp.Ads[0].PlacementID != "b1" {
		t.Errorf("Expected cached catalog, got %+v", resp)
	}
}

func TestFetchAdUnits_CorruptCacheEntryRefetches(t *testing.T) {
	var hits int32
	server := catalogServer(t, &hits)
	mr, cache := newRedisCache(t)
	_ = mr.Set(CacheKey("68"), "not json")

	client := NewClient(server.URL+"/ads", Options{Cache: cache})
	if _, err := client.FetchAdUnits(context.Background(), "68"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("Expected upstream fetch, got %d hits", got)
	}
}

func TestCacheKey(t *testing.T) {
	if got := CacheKey("68"); got != "adbridge:catalog:68" {
		t.Errorf("Expected adbridge:catalog:68, got %s", got)
	}
}
