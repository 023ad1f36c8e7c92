package blob

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/goalside/matchtrack/internal/store"
)

// KVStore keeps blobs in the local key-value store under
// sync-blob:<token>. It lets a tracker instance double as the sync
// endpoint for other devices without a redis dependency.
type KVStore struct {
	kv store.KV
}

func NewKVStore(kv store.KV) *KVStore {
	return &KVStore{kv: kv}
}

func kvKey(token string) string { return "sync-blob:" + token }

func (s *KVStore) Get(ctx context.Context, token string) (json.RawMessage, error) {
	raw, err := s.kv.Get(ctx, kvKey(token))
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return json.RawMessage(raw), nil
}

func (s *KVStore) Put(ctx context.Context, token string, state json.RawMessage) error {
	return s.kv.Set(ctx, kvKey(token), string(state))
}
