//go:build integration
// +build integration

package valkey_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/valkey-io/valkey-go"

	cache "github.com/samirrijal/utmgrid/internal/adapters/valkey"
	"github.com/samirrijal/utmgrid/internal/pkg/config"
)

// setupTestCache connects to the configured Valkey server.
func setupTestCache(t *testing.T) (*cache.Cache, valkey.Client) {
	t.Helper()
	cfg, err := config.Load("utmgrid-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	client, err := valkey.NewClient(valkey.ClientOption{InitAddress: []string{cfg.Valkey.Addr}})
	if err != nil {
		t.Fatalf("connect valkey: %v", err)
	}
	t.Cleanup(client.Close)
	return cache.NewWithClient(client), client
}

func testKey(t *testing.T) string {
	return fmt.Sprintf("utmgrid:test:%s:%d", t.Name(), time.Now().UnixNano())
}

func ttl(t *testing.T, client valkey.Client, key string) int64 {
	t.Helper()
	ctx := context.Background()
	n, err := client.Do(ctx, client.B().Ttl().Key(key).Build()).AsInt64()
	if err != nil {
		t.Fatalf("ttl %s: %v", key, err)
	}
	return n
}

func TestCache_MissingKey(t *testing.T) {
	c, _ := setupTestCache(t)

	_, err := c.Get(context.Background(), testKey(t))
	if !errors.Is(err, cache.ErrMiss) {
		t.Fatalf("expected ErrMiss, got %v", err)
	}
}

func TestCache_SetGetWithTTL(t *testing.T) {
	c, client := setupTestCache(t)
	ctx := context.Background()
	key := testKey(t)
	t.Cleanup(func() { _ = c.Delete(ctx, key) })

	// Wire-encoded sets contain zero bytes.
	value := []byte{0x0a, 0x00, 0xff, 0x12, 0x00}
	if err := c.Set(ctx, key, value, 60); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := c.Get(ctx, key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != string(value) {
		t.Errorf("expected %x, got %x", value, got)
	}
	if n := ttl(t, client, key); n <= 0 || n > 60 {
		t.Errorf("expected a TTL in (0, 60], got %d", n)
	}
}

func TestCache_SetWithoutTTL(t *testing.T) {
	c, client := setupTestCache(t)
	ctx := context.Background()
	key := testKey(t)
	t.Cleanup(func() { _ = c.Delete(ctx, key) })

	if err := c.Set(ctx, key, []byte("x"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	if n := ttl(t, client, key); n != -1 {
		t.Errorf("expected no expiry (-1), got %d", n)
	}
}

func TestCache_Delete(t *testing.T) {
	c, _ := setupTestCache(t)
	ctx := context.Background()
	key := testKey(t)

	if err := c.Set(ctx, key, []byte("x"), 60); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := c.Delete(ctx, key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := c.Get(ctx, key); !errors.Is(err, cache.ErrMiss) {
		t.Errorf("expected ErrMiss after delete, got %v", err)
	}
}
