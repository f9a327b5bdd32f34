package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/mtax/backend/internal/domain/shared"
	"github.com/mtax/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
)

var _ shared.IdempotencyStore = (*RedisIdempotencyStore)(nil)

// DefaultKeyPrefix namespaces ledger idempotency keys in Redis
const DefaultKeyPrefix = "mtax:idempotency:"

// RedisIdempotencyStore shares processed keys between service instances.
// MarkProcessed is a single SET NX, so concurrent callbacks race safely.
type RedisIdempotencyStore struct {
	client     redis.UniversalClient
	prefix     string
	ownsClient bool
}

// NewRedisIdempotencyStore dials Redis and verifies the connection
func NewRedisIdempotencyStore(ctx context.Context, cfg config.RedisConfig) (*RedisIdempotencyStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr(), err)
	}

	s := NewRedisIdempotencyStoreWithClient(client, "")
	s.ownsClient = true
	return s, nil
}

// NewRedisIdempotencyStoreWithClient wraps an existing client. The caller
// keeps ownership: Close does not close it.
func NewRedisIdempotencyStoreWithClient(client redis.UniversalClient, prefix string) *RedisIdempotencyStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisIdempotencyStore{client: client, prefix: prefix}
}

func (s *RedisIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.prefix+key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("mark %s processed: %w", key, err)
	}
	return ok, nil
}

func (s *RedisIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.prefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("check %s processed: %w", key, err)
	}
	return n > 0, nil
}

func (s *RedisIdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("release %s: %w", key, err)
	}
	return nil
}

func (s *RedisIdempotencyStore) Close() error {
	if !s.ownsClient {
		return nil
	}
	return s.client.Close()
}
