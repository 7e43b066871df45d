package session

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/redis/go-redis/v9"
)

func newTestRedisBackend(t *testing.T, opts ...Option) (*RedisBackend[principal], *redis.Client) {
	t.Helper()

	addr := strings.TrimSpace(os.Getenv("HELLO_TEST_REDIS_ADDR"))
	if addr == "" {
		t.Skip("HELLO_TEST_REDIS_ADDR not set; skipping redis integration test")
	}

	cfg := DefaultConfig()
	cfg.RedisAddr = addr
	cfg.KeyPrefix = "hello:test:" + strings.ReplaceAll(t.Name(), "/", "_") + ":"

	ctx := context.Background()
	client, err := NewRedisClient(ctx, cfg)
	if err != nil {
		t.Skipf("redis not available: %v", err)
	}

	cleanup := func() {
		iter := client.Scan(ctx, 0, cfg.KeyPrefix+"*", 100).Iterator()
		for iter.Next(ctx) {
			client.Del(ctx, iter.Val())
		}
	}
	cleanup()
	t.Cleanup(func() {
		cleanup()
		_ = client.Close()
	})

	return NewRedisBackend[principal](client, cfg, opts...), client
}

func TestRedisBackend_Contract(t *testing.T) {
	b, _ := newTestRedisBackend(t)
	exerciseBackend(t, b)
}

func TestRedisBackend_StoresHashedKeyWithoutTTL(t *testing.T) {
	b, client := newTestRedisBackend(t, WithTokenGenerator(sequenceTokens("plain-token")))
	ctx := context.Background()

	tok, err := b.Create(ctx, principal{ID: 11})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if n, _ := client.Exists(ctx, b.prefix+tok).Result(); n != 0 {
		t.Fatalf("raw token used as redis key")
	}
	ttl, err := client.TTL(ctx, b.key(tok)).Result()
	if err != nil {
		t.Fatalf("TTL: %v", err)
	}
	if ttl != -1 {
		t.Fatalf("expected no TTL, got %v", ttl)
	}
}

func TestRedisBackend_CollisionExhaustsAttempts(t *testing.T) {
	b, _ := newTestRedisBackend(t, WithTokenGenerator(func() string { return "same" }))
	ctx := context.Background()

	if _, err := b.Create(ctx, principal{ID: 1}); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	if _, err := b.Create(ctx, principal{ID: 2}); err != ErrTokenExhausted {
		t.Fatalf("expected ErrTokenExhausted, got %v", err)
	}
	if p, ok, _ := b.Get(ctx, "same"); !ok || p.ID != 1 {
		t.Fatalf("collision overwrote stored principal: %+v", p)
	}
}
