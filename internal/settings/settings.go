// Package settings owns the app settings: team name, known players,
// period format, sync token, and theme preference.
package settings

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Theme selects the presentation color scheme.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// Settings is the persisted app configuration.
type Settings struct {
	TeamName       string   `json:"teamName"`
	Players        []string `json:"players"`
	PeriodsCount   int      `json:"periodsCount"`
	PeriodDuration int      `json:"periodDuration"` // minutes
	SyncToken      string   `json:"syncToken,omitempty"`
	Theme          Theme    `json:"theme"`
}

// Default returns the out-of-the-box settings: four 20-minute periods.
func Default() Settings {
	return Settings{
		TeamName:       "My Team",
		Players:        []string{},
		PeriodsCount:   4,
		PeriodDuration: 20,
		Theme:          ThemeSystem,
	}
}

// Repository persists settings. found is false when nothing is stored yet
// or the stored value is unreadable.
type Repository interface {
	Settings(ctx context.Context) (s Settings, found bool, err error)
	SaveSettings(ctx context.Context, s Settings) error
}

// Service serializes all settings mutations behind one mutex. Every
// mutation replaces the whole value, persists it, and fires the change
// callback outside the lock.
type Service struct {
	repo     Repository
	onChange func()

	mu  sync.Mutex
	cur Settings
}

// NewService loads persisted settings, falling back to defaults.
func NewService(ctx context.Context, repo Repository) (*Service, error) {
	s := &Service{repo: repo, cur: Default()}
	saved, found, err := repo.Settings(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	if found {
		s.cur = normalize(saved)
	}
	return s, nil
}

// OnChange registers the callback fired after every successful mutation.
func (s *Service) OnChange(fn func()) {
	s.onChange = fn
}

// Current returns a snapshot of the settings.
func (s *Service) Current() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.cur)
}

func (s *Service) update(ctx context.Context, fn func(*Settings)) error {
	s.mu.Lock()
	next := clone(s.cur)
	fn(&next)
	s.cur = next
	err := s.repo.SaveSettings(ctx, next)
	s.mu.Unlock()
	if s.onChange != nil {
		s.onChange()
	}
	if err != nil {
		return fmt.Errorf("persisting settings: %w", err)
	}
	return nil
}

func (s *Service) UpdateTeamName(ctx context.Context, name string) error {
	return s.update(ctx, func(st *Settings) { st.TeamName = name })
}

// AddPlayer adds a player name. Names are trimmed before comparison and
// the list keeps set semantics: adding a known name is a no-op.
func (s *Service) AddPlayer(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	return s.update(ctx, func(st *Settings) {
		for _, p := range st.Players {
			if p == name {
				return
			}
		}
		st.Players = append(st.Players, name)
	})
}

func (s *Service) RemovePlayer(ctx context.Context, name string) error {
	return s.update(ctx, func(st *Settings) {
		kept := st.Players[:0:0]
		for _, p := range st.Players {
			if p != name {
				kept = append(kept, p)
			}
		}
		st.Players = kept
	})
}

// UpdatePlayers replaces the whole list, trimming and deduplicating.
func (s *Service) UpdatePlayers(ctx context.Context, players []string) error {
	return s.update(ctx, func(st *Settings) {
		st.Players = dedupe(players)
	})
}

func (s *Service) UpdatePeriods(ctx context.Context, count, duration int) error {
	return s.update(ctx, func(st *Settings) {
		st.PeriodsCount = count
		st.PeriodDuration = duration
	})
}

func (s *Service) UpdateSyncToken(ctx context.Context, token string) error {
	return s.update(ctx, func(st *Settings) { st.SyncToken = strings.TrimSpace(token) })
}

func (s *Service) UpdateTheme(ctx context.Context, theme Theme) error {
	return s.update(ctx, func(st *Settings) { st.Theme = theme })
}

// ReplaceAll overwrites the settings wholesale. Used when a remote
// snapshot is authoritative.
func (s *Service) ReplaceAll(ctx context.Context, next Settings) error {
	return s.update(ctx, func(st *Settings) { *st = normalize(next) })
}

func clone(s Settings) Settings {
	s.Players = append([]string(nil), s.Players...)
	return s
}

func normalize(s Settings) Settings {
	s.Players = dedupe(s.Players)
	if s.Theme == "" {
		s.Theme = ThemeSystem
	}
	return s
}

func dedupe(players []string) []string {
	out := make([]string, 0, len(players))
	seen := make(map[string]struct{}, len(players))
	for _, p := range players {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
