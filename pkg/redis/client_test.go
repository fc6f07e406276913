package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, string) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	return mr, "redis://" + mr.Addr()
}

func newTestClient(t *testing.T) (*miniredis.Miniredis, *Client) {
	mr, redisURL := setupTestRedis(t)
	client, err := New(redisURL)
	if err != nil {
		mr.Close()
		t.Fatalf("Failed to create client: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return mr, client
}

func TestNew_Success(t *testing.T) {
	_, client := newTestClient(t)

	if err := client.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestNew_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"empty URL", ""},
		{"invalid URL", "not-a-valid-redis-url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(tt.url)
			if err == nil {
				t.Error("Expected error")
			}
			if client != nil {
				t.Error("Expected nil client on error")
			}
		})
	}
}

func TestNewWithConfig_NilConfig(t *testing.T) {
	mr, redisURL := setupTestRedis(t)
	defer mr.Close()

	client, err := NewWithConfig(redisURL, nil)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	defer client.Close()

	if got := client.PoolStats(); got == nil {
		t.Error("Expected pool stats")
	}
}

func TestNewWithConfig_UnreachableServer(t *testing.T) {
	mr, redisURL := setupTestRedis(t)
	mr.Close()

	cfg := DefaultClientConfig()
	cfg.DialTimeout = 100 * time.Millisecond
	client, err := NewWithConfig(redisURL, cfg)
	if err != nil {
		t.Fatalf("Expected client despite failed ping, got %v", err)
	}
	defer client.Close()

	if err := client.Ping(context.Background()); err == nil {
		t.Error("Expected ping error against a closed server")
	}
}

func TestDefaultClientConfig(t *testing.T) {
	cfg := DefaultClientConfig()
	if cfg.PoolSize <= 0 {
		t.Errorf("Expected positive pool size, got %d", cfg.PoolSize)
	}
	if cfg.DialTimeout <= 0 {
		t.Errorf("Expected positive dial timeout, got %v", cfg.DialTimeout)
	}
}

func TestClient_GetSet(t *testing.T) {
	mr, client := newTestClient(t)
	ctx := context.Background()

	if err := client.Set(ctx, "adbridge:catalog:68", `{"gameID":68}`, time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := client.Get(ctx, "adbridge:catalog:68")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != `{"gameID":68}` {
		t.Errorf("Expected stored value, got %q", got)
	}
	if ttl := mr.TTL("adbridge:catalog:68"); ttl != time.Minute {
		t.Errorf("Expected TTL 1m, got %v", ttl)
	}
}

func TestClient_Get_Missing(t *testing.T) {
	_, client := newTestClient(t)

	got, err := client.Get(context.Background(), "missing")
	if err != nil {
		t.Errorf("Expected no error for missing key, got %v", err)
	}
	if got != "" {
		t.Errorf("Expected empty string, got %q", got)
	}
}

func TestClient_Expiry(t *testing.T) {
	mr, client := newTestClient(t)
	ctx := context.Background()

	_ = client.Set(ctx, "k", "v", time.Second)
	mr.FastForward(2 * time.Second)

	if got, _ := client.Get(ctx, "k"); got != "" {
		t.Errorf("Expected expired key to be gone, got %q", got)
	}
}

func TestClient_TTL(t *testing.T) {
	_, client := newTestClient(t)
	ctx := context.Background()

	_ = client.Set(ctx, "k", "v", 30*time.Second)
	ttl, err := client.TTL(ctx, "k")
	if err != nil {
		t.Fatalf("TTL failed: %v", err)
	}
	if ttl <= 0 || ttl > 30*time.Second {
		t.Errorf("Expected TTL within (0, 30s], got %v", ttl)
	}
}

func TestClient_Del(t *testing.T) {
	mr, client := newTestClient(t)
	ctx := context.Background()

	_ = client.Set(ctx, "a", "1", 0)
	_ = client.Set(ctx, "b", "2", 0)
	if err := client.Del(ctx, "a", "b"); err != nil {
		t.Fatalf("Del failed: %v", err)
	}
	if mr.Exists("a") || mr.Exists("b") {
		t.Error("Expected keys to be deleted")
	}
}

func TestClient_Get_ClosedConnection(t *testing.T) {
	mr, redisURL := setupTestRedis(t)
	client, err := New(redisURL)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	mr.Close()
	defer client.Close()

	if _, err := client.Get(context.Background(), "k"); err == nil {
		t.Error("Expected error after server closed")
	}
}
