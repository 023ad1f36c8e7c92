// Package blob implements the server side of the sync protocol: opaque
// state blobs keyed by a bearer token, stored whole and replaced whole.
package blob

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNotFound is returned by Get when no blob is stored for the token.
var ErrNotFound = errors.New("not found")

// Store holds one JSON blob per sync token. Put replaces the whole blob
// (last writer wins); there is no merging.
type Store interface {
	Get(ctx context.Context, token string) (json.RawMessage, error)
	Put(ctx context.Context, token string, state json.RawMessage) error
}
