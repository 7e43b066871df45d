package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gltdhd/Spring-MVC-2/cmd/security/token"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisBackend stores JSON-encoded principals in Redis.
//
// Keys are prefix + hash(token); raw tokens are never written. Entries carry
// no TTL and live until Expire.
type RedisBackend[P any] struct {
	client   *redis.Client
	prefix   string
	attempts int
	newToken TokenFunc
	keyHash  func(string) string
}

// NewRedisBackend builds a backend over client using cfg's prefix and retry bound.
func NewRedisBackend[P any](client *redis.Client, cfg Config, opts ...Option) *RedisBackend[P] {
	o := options{newToken: uuid.NewString}
	for _, opt := range opts {
		opt(&o)
	}
	attempts := cfg.CreateAttempts
	if attempts <= 0 {
		attempts = 1
	}
	return &RedisBackend[P]{
		client:   client,
		prefix:   cfg.KeyPrefix,
		attempts: attempts,
		newToken: o.newToken,
		keyHash:  token.HashSessionTokenHex,
	}
}

// NewRedisClient connects to Redis and verifies connectivity.
func NewRedisClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("session: redis ping: %w", err)
	}
	return client, nil
}

func (b *RedisBackend[P]) key(tok string) string {
	return b.prefix + b.keyHash(tok)
}

func (b *RedisBackend[P]) Create(ctx context.Context, p P) (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", storeErr("encode", err)
	}

	for i := 0; i < b.attempts; i++ {
		tok := b.newToken()
		if tok == "" {
			continue
		}
		ok, err := b.client.SetNX(ctx, b.key(tok), raw, 0).Result()
		if err != nil {
			return "", storeErr("create", err)
		}
		if ok {
			return tok, nil
		}
	}
	return "", ErrTokenExhausted
}

func (b *RedisBackend[P]) Get(ctx context.Context, tok string) (P, bool, error) {
	var p P
	if tok == "" {
		return p, false, nil
	}

	raw, err := b.client.Get(ctx, b.key(tok)).Bytes()
	if errors.Is(err, redis.Nil) {
		return p, false, nil
	}
	if err != nil {
		return p, false, storeErr("get", err)
	}

	if err := json.Unmarshal(raw, &p); err != nil {
		return p, false, storeErr("decode", err)
	}
	return p, true, nil
}

func (b *RedisBackend[P]) Expire(ctx context.Context, tok string) error {
	if tok == "" {
		return nil
	}
	return storeErr("expire", b.client.Del(ctx, b.key(tok)).Err())
}
