// Package cache provides a Dragonfly/Redis client wrapper for the legacy
// mastery sets and exam drafts.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultNamespace prefixes every key written by this service.
const DefaultNamespace = "dojo"

// Cache wraps a Redis/Dragonfly client.
type Cache struct {
	Client    *redis.Client
	namespace string
}

// ParseURL validates a Redis connection URL.
func ParseURL(url string) (*redis.Options, error) {
	if url == "" {
		return nil, fmt.Errorf("cache URL is empty")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid cache URL: %w", err)
	}
	return opts, nil
}

// New creates a new cache client and pings it.
func New(ctx context.Context, url string) (*Cache, error) {
	opts, err := ParseURL(url)
	if err != nil {
		return nil, err
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging cache: %w", err)
	}

	return &Cache{Client: client, namespace: DefaultNamespace}, nil
}

// Prefix returns the key prefix for one kind of record, for example
// Prefix("mastered") yields "dojo:mastered:".
func (c *Cache) Prefix(kind string) string {
	return KeyPrefix(c.namespace, kind)
}

// KeyPrefix joins non-empty parts with ':' and appends a trailing ':'.
func KeyPrefix(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.Trim(p, ": "); p != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return ""
	}
	return strings.Join(kept, ":") + ":"
}

// Close shuts down the cache client.
func (c *Cache) Close() error {
	return c.Client.Close()
}

// HealthCheck verifies the cache connection is alive.
func (c *Cache) HealthCheck(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}
