package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/goalside/matchtrack/internal/match"
	"github.com/goalside/matchtrack/internal/settings"
)

// Storage keys. Every value is a JSON snapshot.
const (
	keyHistory  = "match-history"
	keyActive   = "active-match"
	keyArchive  = "full-matches"
	keySettings = "settings"
)

// Repository is the typed persistence layer over the key-value store. It
// implements match.Repository and settings.Repository. A corrupt or
// absent snapshot loads as empty state: the store degrades, it never
// blocks startup.
type Repository struct {
	kv KV
}

func NewRepository(kv KV) *Repository {
	return &Repository{kv: kv}
}

// load unmarshals the value at key into v. Absent keys and malformed
// values report found=false.
func (r *Repository) load(ctx context.Context, key string, v any) (bool, error) {
	raw, err := r.kv.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, nil
	}
	return true, nil
}

func (r *Repository) save(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if err := r.kv.Set(ctx, key, string(raw)); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

func (r *Repository) History(ctx context.Context) ([]match.Summary, error) {
	var history []match.Summary
	found, err := r.load(ctx, keyHistory, &history)
	if err != nil {
		return nil, err
	}
	if !found || history == nil {
		return []match.Summary{}, nil
	}
	return history, nil
}

func (r *Repository) SaveHistory(ctx context.Context, history []match.Summary) error {
	return r.save(ctx, keyHistory, history)
}

func (r *Repository) ActiveMatch(ctx context.Context) (*match.Match, error) {
	var m match.Match
	found, err := r.load(ctx, keyActive, &m)
	if err != nil {
		return nil, err
	}
	if !found || m.ID == "" {
		return nil, nil
	}
	return &m, nil
}

func (r *Repository) SaveActiveMatch(ctx context.Context, m *match.Match) error {
	if m == nil {
		if err := r.kv.Remove(ctx, keyActive); err != nil {
			return fmt.Errorf("removing %s: %w", keyActive, err)
		}
		return nil
	}
	return r.save(ctx, keyActive, m)
}

func (r *Repository) Archive(ctx context.Context) (map[string]match.Match, error) {
	var archive map[string]match.Match
	found, err := r.load(ctx, keyArchive, &archive)
	if err != nil {
		return nil, err
	}
	if !found || archive == nil {
		return map[string]match.Match{}, nil
	}
	return archive, nil
}

func (r *Repository) SaveArchive(ctx context.Context, archive map[string]match.Match) error {
	return r.save(ctx, keyArchive, archive)
}

func (r *Repository) Settings(ctx context.Context) (settings.Settings, bool, error) {
	var s settings.Settings
	found, err := r.load(ctx, keySettings, &s)
	if err != nil {
		return settings.Settings{}, false, err
	}
	return s, found, nil
}

func (r *Repository) SaveSettings(ctx context.Context, s settings.Settings) error {
	return r.save(ctx, keySettings, s)
}
