// Package cache implements the Redis-backed cache-aside layer for read views
// (article detail, hot article list). Values are stored as JSON under plain
// string keys with a per-entry TTL.
//
// The cache is best-effort by design: read paths must tolerate cold misses,
// and write paths invalidate affected keys after mutating the relational
// store. Like/vote state is embedded in the cached article view, which is why
// the reaction service deletes the article key on every engagement mutation.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Well-known keys shared with the read paths.
const (
	// HotArticlesKey caches the hot-articles list.
	HotArticlesKey = "articles:hot"
	// articleKeyPrefix namespaces cached article detail views.
	articleKeyPrefix = "article:"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// ArticleKey returns the cache key for an article's detail view.
func ArticleKey(articleID uint) string {
	return fmt.Sprintf("%s%d", articleKeyPrefix, articleID)
}

// ArticlePattern matches every cached article detail view; used for bulk
// invalidation after writes that may affect many list/detail views.
func ArticlePattern() string {
	return articleKeyPrefix + "*"
}

// Store is a thin JSON codec over a Redis client. It accepts redis.Cmdable so
// both a single client and a cluster client can back it.
type Store struct {
	rdb redis.Cmdable
}

// New constructs a Store over the given Redis client handle.
func New(rdb redis.Cmdable) *Store {
	return &Store{rdb: rdb}
}

// Get loads and decodes the value at key into dest. Returns ErrMiss when the
// key does not exist; other errors indicate Redis or decoding failures.
func (s *Store) Get(ctx context.Context, key string, dest any) error {
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return fmt.Errorf("cache get %q: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("cache decode %q: %w", key, err)
	}
	return nil
}

// Set encodes value as JSON and stores it at key with the given TTL.
func (s *Store) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %q: %w", key, err)
	}
	if err := s.rdb.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %q: %w", key, err)
	}
	return nil
}

// Del removes the given keys. Missing keys are not an error.
func (s *Store) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache del: %w", err)
	}
	return nil
}

// DelPattern removes every key matching pattern using incremental SCAN, so
// large keyspaces are swept without blocking Redis the way KEYS would.
func (s *Store) DelPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("cache scan %q: %w", pattern, err)
		}
		if len(keys) > 0 {
			if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("cache del %q: %w", pattern, err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Exists reports whether key is present.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("cache exists %q: %w", key, err)
	}
	return n == 1, nil
}
