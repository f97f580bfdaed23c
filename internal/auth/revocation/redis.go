package revocation

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "auth:revoked:"

// Redis is a Store backed by a Redis instance with per-key TTLs. Revocations
// survive process restarts and are shared across replicas.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Dial connects to a Redis instance and verifies it responds before use.
func Dial(ctx context.Context, addr string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("revocation: redis ping failed: %w", err)
	}

	return NewRedis(client), nil
}

func (r *Redis) Put(ctx context.Context, jti string, ttl time.Duration) error {
	// KEEPTTL semantics by hand: don't let a re-revocation shorten the entry.
	cur, err := r.client.TTL(ctx, keyPrefix+jti).Result()
	if err == nil && cur > clampTTL(ttl) {
		return nil
	}
	if err := r.client.Set(ctx, keyPrefix+jti, "1", clampTTL(ttl)).Err(); err != nil {
		return fmt.Errorf("revocation: put: %w", err)
	}
	return nil
}

func (r *Redis) Exists(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Exists(ctx, keyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("revocation: exists: %w", err)
	}
	return n > 0, nil
}

// Close releases the underlying client.
func (r *Redis) Close() error { return r.client.Close() }
