// Package cache holds the optional Redis lookaside consulted by the auth
// gate before hitting the store for revoked-token checks.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "revoked:"

// RevocationCache answers "was this access token revoked?" from Redis.
// Entries are written on revocation and expire with the token itself, so a
// miss still needs a store lookup.
type RevocationCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRevocationCache connects to Redis via a REDIS_URL-style connection
// string. ttl should be at least the access-token lifetime.
func NewRevocationCache(url string, ttl time.Duration) (*RevocationCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RevocationCache{client: client, ttl: ttl}, nil
}

// MarkRevoked records the tombstone in Redis. Failures are non-fatal for the
// caller; the store remains the source of truth.
func (c *RevocationCache) MarkRevoked(ctx context.Context, accessToken string) error {
	return c.client.Set(ctx, revokedKeyPrefix+accessToken, "1", c.ttl).Err()
}

// IsRevoked returns (true, nil) on a cache hit. A miss means "unknown", not
// "valid".
func (c *RevocationCache) IsRevoked(ctx context.Context, accessToken string) (bool, error) {
	_, err := c.client.Get(ctx, revokedKeyPrefix+accessToken).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (c *RevocationCache) Close() error {
	return c.client.Close()
}
