// Package store provides the local persistent key-value store and the
// typed repository the engine and settings service persist through.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by KV.Get when the key has no value.
var ErrNotFound = errors.New("not found")

// KV is an abstract persistent key-value store. Values are serialized
// state snapshots; callers own the format.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
