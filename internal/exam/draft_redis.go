package exam

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisTimeout = 3 * time.Second

// HashClient is the part of the redis client the draft store uses.
// *redis.Client satisfies it.
type HashClient interface {
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	TxPipelined(ctx context.Context, fn func(redis.Pipeliner) error) ([]redis.Cmder, error)
}

// RedisDraftStore keeps each draft as a hash of exercise ID to mark.
// A draft with no marks is stored as a single empty-field sentinel so it
// still exists.
type RedisDraftStore struct {
	client HashClient
	prefix string
}

const emptyDraftField = "_"

func NewRedisDraftStore(client HashClient, prefix string) *RedisDraftStore {
	return &RedisDraftStore{client: client, prefix: prefix}
}

func (s *RedisDraftStore) Get(key string) (map[string]Mark, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	fields, err := s.client.HGetAll(ctx, s.prefix+key).Result()
	if err != nil {
		return nil, false, fmt.Errorf("read draft %s: %w", key, err)
	}
	if len(fields) == 0 {
		return nil, false, nil
	}

	marks := make(map[string]Mark, len(fields))
	for id, v := range fields {
		if id == emptyDraftField {
			continue
		}
		marks[id] = Mark(v)
	}
	return marks, true, nil
}

func (s *RedisDraftStore) Put(key string, marks map[string]Mark) error {
	if key == "" {
		return fmt.Errorf("draft key is required")
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	values := make([]interface{}, 0, 2*len(marks)+2)
	if len(marks) == 0 {
		values = append(values, emptyDraftField, "")
	}
	for id, m := range marks {
		values = append(values, id, string(m))
	}
	// DEL and HSET run in one MULTI/EXEC so a failed write keeps the
	// previous draft.
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.prefix+key)
		pipe.HSet(ctx, s.prefix+key, values...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("write draft %s: %w", key, err)
	}
	return nil
}

func (s *RedisDraftStore) Delete(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("delete draft %s: %w", key, err)
	}
	return nil
}
