// Package sync keeps a remote state blob, addressed by an opaque token,
// approximately consistent with local state: fetch-on-activation pull,
// debounced push, whole-document last-writer-wins.
package sync

import (
	"context"

	"github.com/goalside/matchtrack/internal/match"
	"github.com/goalside/matchtrack/internal/settings"
)

// State is the wire unit for sync: the whole app state in one blob. It is
// assembled on demand and never stored as a separate source of truth.
type State struct {
	Matches     []match.Summary        `json:"matches"`
	ActiveMatch *match.Match           `json:"activeMatch"`
	FullMatches map[string]match.Match `json:"fullMatches"`
	Settings    settings.Settings      `json:"settings"`
}

// Local is the coordinator's view of the device state.
type Local interface {
	Snapshot(ctx context.Context) (State, error)
	// Apply overwrites local state with an authoritative remote snapshot.
	Apply(ctx context.Context, s State) error
}

// Remote is the blob endpoint. Fetch returns (nil, nil) when no state is
// stored for the token.
type Remote interface {
	Fetch(ctx context.Context, token string) (*State, error)
	Push(ctx context.Context, token string, s State) error
}

// appLocal adapts the engine and settings service to Local.
type appLocal struct {
	engine   *match.Engine
	settings *settings.Service
}

// NewAppLocal bundles the match engine and settings service into the
// coordinator's Local view.
func NewAppLocal(eng *match.Engine, st *settings.Service) Local {
	return &appLocal{engine: eng, settings: st}
}

func (a *appLocal) Snapshot(ctx context.Context) (State, error) {
	history, active, archive, err := a.engine.Snapshot(ctx)
	if err != nil {
		return State{}, err
	}
	return State{
		Matches:     history,
		ActiveMatch: active,
		FullMatches: archive,
		Settings:    a.settings.Current(),
	}, nil
}

func (a *appLocal) Apply(ctx context.Context, s State) error {
	if err := a.engine.ReplaceAll(ctx, s.Matches, s.ActiveMatch, s.FullMatches); err != nil {
		return err
	}
	return a.settings.ReplaceAll(ctx, s.Settings)
}
