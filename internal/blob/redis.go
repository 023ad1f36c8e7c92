package blob

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps blobs in redis under sync:state:<token>.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func redisKey(token string) string { return "sync:state:" + token }

func (s *RedisStore) Get(ctx context.Context, token string) (json.RawMessage, error) {
	raw, err := s.rdb.Get(ctx, redisKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading blob: %w", err)
	}
	return raw, nil
}

func (s *RedisStore) Put(ctx context.Context, token string, state json.RawMessage) error {
	if err := s.rdb.Set(ctx, redisKey(token), []byte(state), 0).Err(); err != nil {
		return fmt.Errorf("writing blob: %w", err)
	}
	return nil
}
