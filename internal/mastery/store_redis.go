package mastery

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisTimeout = 3 * time.Second

// SetClient is the part of the redis client the set store uses.
// *redis.Client satisfies it.
type SetClient interface {
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd
	SAdd(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	SRem(ctx context.Context, key string, members ...interface{}) *redis.IntCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisSetStore keeps legacy sets as redis sets under prefix+SetKey.
type RedisSetStore struct {
	client SetClient
	prefix string
}

// NewRedisSetStore creates a set store. Distinct prefixes keep the mastered
// and unknown sets apart on one server.
func NewRedisSetStore(client SetClient, prefix string) *RedisSetStore {
	return &RedisSetStore{client: client, prefix: prefix}
}

func (s *RedisSetStore) Members(key string) ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	members, err := s.client.SMembers(ctx, s.prefix+key).Result()
	if err != nil {
		return nil, fmt.Errorf("read set %s: %w", key, err)
	}
	return members, nil
}

func (s *RedisSetStore) Add(key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	if err := s.client.SAdd(ctx, s.prefix+key, toArgs(members)...).Err(); err != nil {
		return fmt.Errorf("add to set %s: %w", key, err)
	}
	return nil
}

func (s *RedisSetStore) Remove(key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	if err := s.client.SRem(ctx, s.prefix+key, toArgs(members)...).Err(); err != nil {
		return fmt.Errorf("remove from set %s: %w", key, err)
	}
	return nil
}

func (s *RedisSetStore) Clear(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("clear set %s: %w", key, err)
	}
	return nil
}

func toArgs(members []string) []interface{} {
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	return args
}
