// Package cache keeps catalog reads and cart session tokens in redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/niksmo/storefront/internal/core/port"
	"github.com/redis/go-redis/v9"
)

var _ port.CatalogCache = (*CatalogCache)(nil)
var _ port.CatalogCache = NopCache{}
var _ port.SessionTokenStore = (*SessionTokens)(nil)

const (
	DefaultCatalogTTL = 5 * time.Minute

	// DefaultSessionTTL matches the upstream cart session lifetime.
	DefaultSessionTTL = 48 * time.Hour

	catalogPrefix = "catalog:"
	tagPrefix     = "catalog-tag:"
	sessionPrefix = "cart-session:"
)

// A CatalogCache stores JSON values with a jittered TTL
// and indexes every key in one set per tag.
type CatalogCache struct {
	client  redis.Cmdable
	baseTTL time.Duration
}

func NewCatalogCache(client redis.Cmdable, baseTTL time.Duration) *CatalogCache {
	if baseTTL <= 0 {
		baseTTL = DefaultCatalogTTL
	}
	return &CatalogCache{client: client, baseTTL: baseTTL}
}

func (c *CatalogCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	const op = "CatalogCache.Get"

	data, err := c.client.Get(ctx, catalogKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("%s: unmarshal %q: %w", op, key, err)
	}
	return true, nil
}

func (c *CatalogCache) Set(ctx context.Context, key string, v any, tags ...string) error {
	const op = "CatalogCache.Set"

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%s: marshal %q: %w", op, key, err)
	}

	ttl := c.ttl()
	k := catalogKey(key)

	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, k, data, ttl)
		for _, tag := range tags {
			pipe.SAdd(ctx, tagKey(tag), k)
			pipe.Expire(ctx, tagKey(tag), 2*c.baseTTL)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// InvalidateTags deletes every key indexed under the tags.
func (c *CatalogCache) InvalidateTags(ctx context.Context, tags ...string) error {
	const op = "CatalogCache.InvalidateTags"

	for _, tag := range tags {
		tk := tagKey(tag)
		keys, err := c.client.SMembers(ctx, tk).Result()
		if err != nil {
			return fmt.Errorf("%s: tag %q: %w", op, tag, err)
		}
		keys = append(keys, tk)
		if err := c.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("%s: tag %q: %w", op, tag, err)
		}
	}
	return nil
}

func (c *CatalogCache) ttl() time.Duration {
	jitter := time.Duration(rand.Int64N(int64(c.baseTTL/5) + 1))
	return c.baseTTL + jitter
}

func catalogKey(key string) string {
	return catalogPrefix + key
}

func tagKey(tag string) string {
	return tagPrefix + tag
}

// NopCache never hits. It serves when no redis is configured.
type NopCache struct{}

func (NopCache) Get(context.Context, string, any) (bool, error) { return false, nil }

func (NopCache) Set(context.Context, string, any, ...string) error { return nil }

func (NopCache) InvalidateTags(context.Context, ...string) error { return nil }

// SessionTokens maps browser session IDs to upstream session tokens.
type SessionTokens struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewSessionTokens(client redis.Cmdable, ttl time.Duration) *SessionTokens {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionTokens{client: client, ttl: ttl}
}

// LoadToken returns an empty token for unknown sessions.
func (s *SessionTokens) LoadToken(ctx context.Context, sessionID string) (string, error) {
	const op = "SessionTokens.LoadToken"

	token, err := s.client.Get(ctx, sessionPrefix+sessionID).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return token, nil
}

func (s *SessionTokens) SaveToken(ctx context.Context, sessionID, token string) error {
	const op = "SessionTokens.SaveToken"

	err := s.client.Set(ctx, sessionPrefix+sessionID, token, s.ttl).Err()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
