package match

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrMatchInProgress is returned by StartMatch while an active match
// exists. Only one match can be live at a time.
var ErrMatchInProgress = errors.New("a match is already in progress")

// Repository persists the engine's state. Absent or malformed snapshots
// load as empty state, never as an error.
type Repository interface {
	History(ctx context.Context) ([]Summary, error)
	SaveHistory(ctx context.Context, history []Summary) error
	ActiveMatch(ctx context.Context) (*Match, error)
	// SaveActiveMatch with a nil match clears the active slot.
	SaveActiveMatch(ctx context.Context, m *Match) error
	Archive(ctx context.Context) (map[string]Match, error)
	SaveArchive(ctx context.Context, archive map[string]Match) error
}

// Engine owns the active match and the match history. Every mutation
// builds a fresh snapshot and replaces the current one atomically under a
// single mutex, persists through the repository, and fires the change
// callback. Two mutations never interleave partial updates.
type Engine struct {
	repo     Repository
	now      func() time.Time
	onChange func()

	mu      sync.Mutex
	active  *Match
	history []Summary
}

type Option func(*Engine)

// WithClock overrides the time source. Tests use it to drive the timer
// deterministically.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New loads the persisted active match and history and returns the engine.
func New(ctx context.Context, repo Repository, opts ...Option) (*Engine, error) {
	e := &Engine{repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}

	active, err := repo.ActiveMatch(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading active match: %w", err)
	}
	history, err := repo.History(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	e.active = active
	e.history = history
	return e, nil
}

// OnChange registers the callback fired after every successful mutation.
// The callback runs outside the engine lock.
func (e *Engine) OnChange(fn func()) {
	e.onChange = fn
}

func (e *Engine) changed() {
	if e.onChange != nil {
		e.onChange()
	}
}

func wallTime(t time.Time) string { return t.Format("15:04") }

func matchDate(startedAt int64) string {
	return time.UnixMilli(startedAt).Format("2 Jan 2006")
}

// StartMatch creates a new active match with a seed "Start Period 1"
// event and the timer running. Empty team names fall back to defaults.
func (e *Engine) StartMatch(ctx context.Context, myTeamName, opponentName string, isHome bool) (*Match, error) {
	e.mu.Lock()
	if e.active != nil {
		e.mu.Unlock()
		return nil, ErrMatchInProgress
	}
	if myTeamName == "" {
		myTeamName = "My Team"
	}
	if opponentName == "" {
		opponentName = "Opponent"
	}
	now := e.now()
	m := &Match{
		ID:           uuid.NewString(),
		MyTeamName:   myTeamName,
		OpponentName: opponentName,
		IsHome:       isHome,
		Goals:        []Goal{},
		Events: []GameEvent{{
			ID:        uuid.NewString(),
			Type:      EventStart,
			Label:     "Start Period 1",
			Time:      wallTime(now),
			Timestamp: now.UnixMilli(),
		}},
		StartedAt:     now.UnixMilli(),
		IsActive:      true,
		IsRunning:     true,
		CurrentPeriod: 1,
	}
	e.active = m
	err := e.repo.SaveActiveMatch(ctx, m)
	e.mu.Unlock()
	e.changed()
	if err != nil {
		return m.Clone(), fmt.Errorf("persisting active match: %w", err)
	}
	return m.Clone(), nil
}

// mutate applies fn to a fresh snapshot of the active match and swaps it
// in. A nil active match or a false return from fn is a silent no-op: the
// presentation layer hides these controls when no match is live.
func (e *Engine) mutate(ctx context.Context, fn func(m *Match) bool) error {
	e.mu.Lock()
	if e.active == nil {
		e.mu.Unlock()
		return nil
	}
	next := e.active.Clone()
	if !fn(next) {
		e.mu.Unlock()
		return nil
	}
	e.active = next
	err := e.repo.SaveActiveMatch(ctx, next)
	e.mu.Unlock()
	e.changed()
	if err != nil {
		return fmt.Errorf("persisting active match: %w", err)
	}
	return nil
}

// AddGoal appends a goal to the active match. Scorer and assist are
// dropped for opponent goals.
func (e *Engine) AddGoal(ctx context.Context, team Team, scorer, assist string, typ GoalType) error {
	if typ == "" {
		typ = GoalNormal
	}
	if team != TeamMine {
		scorer, assist = "", ""
	}
	now := e.now()
	return e.mutate(ctx, func(m *Match) bool {
		m.Goals = append(m.Goals, Goal{
			ID:        uuid.NewString(),
			Team:      team,
			Scorer:    scorer,
			Assist:    assist,
			Type:      typ,
			Time:      wallTime(now),
			Timestamp: now.UnixMilli(),
		})
		return true
	})
}

// DeleteGoal removes the goal with the given id; unknown ids are ignored.
func (e *Engine) DeleteGoal(ctx context.Context, id string) error {
	return e.mutate(ctx, func(m *Match) bool {
		for i, g := range m.Goals {
			if g.ID == id {
				m.Goals = append(m.Goals[:i], m.Goals[i+1:]...)
				return true
			}
		}
		return false
	})
}

// AddEvent appends a timeline event to the active match.
func (e *Engine) AddEvent(ctx context.Context, typ EventType, label string) error {
	now := e.now()
	return e.mutate(ctx, func(m *Match) bool {
		m.Events = append(m.Events, GameEvent{
			ID:        uuid.NewString(),
			Type:      typ,
			Label:     label,
			Time:      wallTime(now),
			Timestamp: now.UnixMilli(),
		})
		return true
	})
}

// DeleteEvent removes the event with the given id; unknown ids are ignored.
func (e *Engine) DeleteEvent(ctx context.Context, id string) error {
	return e.mutate(ctx, func(m *Match) bool {
		for i, ev := range m.Events {
			if ev.ID == id {
				m.Events = append(m.Events[:i], m.Events[i+1:]...)
				return true
			}
		}
		return false
	})
}

// StartPeriod resumes play. The period number only advances when the
// most recent timeline event is a period-end, so the first call after
// StartMatch must not double-increment. The running flag is irrelevant
// here: resuming the clock after a period-end does not consume the
// pending transition. Any pause gap accumulated while stopped is folded
// into the total before the clock restarts.
func (e *Engine) StartPeriod(ctx context.Context) error {
	now := e.now()
	return e.mutate(ctx, func(m *Match) bool {
		period := m.CurrentPeriod
		if n := len(m.Events); n > 0 && m.Events[n-1].Type == EventPeriodEnd {
			period++
		}
		if m.PausedAt != 0 {
			m.TotalPausedTime += now.UnixMilli() - m.PausedAt
		}
		m.IsRunning = true
		m.PausedAt = 0
		m.CurrentPeriod = period
		m.Events = append(m.Events, GameEvent{
			ID:        uuid.NewString(),
			Type:      EventStart,
			Label:     fmt.Sprintf("Start Period %d", period),
			Time:      wallTime(now),
			Timestamp: now.UnixMilli(),
		})
		return true
	})
}

// EndPeriod stops the clock and logs an "End Period N" event. Repeated
// calls append repeated events on purpose (each is an explicit timeline
// record) but the timer fields are only touched while running.
func (e *Engine) EndPeriod(ctx context.Context) error {
	now := e.now()
	return e.mutate(ctx, func(m *Match) bool {
		if m.IsRunning {
			m.PausedAt = now.UnixMilli()
		}
		m.IsRunning = false
		m.Events = append(m.Events, GameEvent{
			ID:        uuid.NewString(),
			Type:      EventPeriodEnd,
			Label:     fmt.Sprintf("End Period %d", m.CurrentPeriod),
			Time:      wallTime(now),
			Timestamp: now.UnixMilli(),
		})
		return true
	})
}

// ToggleTimer pauses a running clock or resumes a paused one. Pure
// elapsed-time bookkeeping: no timeline event is appended.
func (e *Engine) ToggleTimer(ctx context.Context) error {
	now := e.now()
	return e.mutate(ctx, func(m *Match) bool {
		if m.IsRunning {
			m.IsRunning = false
			m.PausedAt = now.UnixMilli()
			return true
		}
		if m.PausedAt != 0 {
			m.TotalPausedTime += now.UnixMilli() - m.PausedAt
		}
		m.IsRunning = true
		m.PausedAt = 0
		return true
	})
}

// UndoLast removes the most recent entry: whichever of the last-appended
// goal and the last-appended event carries the greater timestamp. With
// both lists empty it is a no-op.
func (e *Engine) UndoLast(ctx context.Context) error {
	return e.mutate(ctx, func(m *Match) bool {
		nGoals, nEvents := len(m.Goals), len(m.Events)
		switch {
		case nGoals == 0 && nEvents == 0:
			return false
		case nGoals == 0:
			m.Events = m.Events[:nEvents-1]
		case nEvents == 0:
			m.Goals = m.Goals[:nGoals-1]
		case m.Goals[nGoals-1].Timestamp > m.Events[nEvents-1].Timestamp:
			m.Goals = m.Goals[:nGoals-1]
		default:
			m.Events = m.Events[:nEvents-1]
		}
		return true
	})
}

// EndMatch finalizes the active match: the frozen record goes into the
// archive, a score summary is prepended to history, and the active slot
// is cleared. Without an active match it is a no-op returning nil.
func (e *Engine) EndMatch(ctx context.Context) (*Summary, error) {
	e.mu.Lock()
	if e.active == nil {
		e.mu.Unlock()
		return nil, nil
	}
	now := e.now()
	m := e.active.Clone()
	score := m.Score()

	summary := Summary{
		ID:            m.ID,
		MyTeamName:    m.MyTeamName,
		OpponentName:  m.OpponentName,
		IsHome:        m.IsHome,
		MyTeamScore:   score.MyTeam,
		OpponentScore: score.Opponent,
		Date:          matchDate(m.StartedAt),
		EndedAt:       now.UnixMilli(),
	}

	m.EndedAt = now.UnixMilli()
	m.IsActive = false
	if m.IsRunning {
		m.PausedAt = now.UnixMilli()
	}
	m.IsRunning = false

	e.active = nil
	e.history = append([]Summary{summary}, e.history...)

	err := e.persistEnd(ctx, m)
	e.mu.Unlock()
	e.changed()
	if err != nil {
		return &summary, err
	}
	return &summary, nil
}

func (e *Engine) persistEnd(ctx context.Context, m *Match) error {
	archive, err := e.repo.Archive(ctx)
	if err != nil {
		return fmt.Errorf("loading archive: %w", err)
	}
	archive[m.ID] = *m
	if err := e.repo.SaveArchive(ctx, archive); err != nil {
		return fmt.Errorf("saving archive: %w", err)
	}
	if err := e.repo.SaveHistory(ctx, e.history); err != nil {
		return fmt.Errorf("saving history: %w", err)
	}
	if err := e.repo.SaveActiveMatch(ctx, nil); err != nil {
		return fmt.Errorf("clearing active match: %w", err)
	}
	return nil
}

// ActiveMatch returns a snapshot of the live match, or nil.
func (e *Engine) ActiveMatch() *Match {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active.Clone()
}

// History returns the finalized-match summaries, most recent first.
func (e *Engine) History() []Summary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Summary(nil), e.history...)
}

// MatchDetails looks up a finalized match in the archive. Absent ids
// return nil.
func (e *Engine) MatchDetails(ctx context.Context, id string) (*Match, error) {
	archive, err := e.repo.Archive(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading archive: %w", err)
	}
	m, ok := archive[id]
	if !ok {
		return nil, nil
	}
	return m.Clone(), nil
}

// DeleteMatch removes a finalized match from history and the archive.
// In-memory history is only updated once persistence succeeds, so a
// storage failure leaves memory and disk agreeing.
func (e *Engine) DeleteMatch(ctx context.Context, id string) error {
	e.mu.Lock()
	kept := e.history[:0:0]
	removed := false
	for _, s := range e.history {
		if s.ID == id {
			removed = true
			continue
		}
		kept = append(kept, s)
	}

	archive, err := e.repo.Archive(ctx)
	if err != nil {
		e.mu.Unlock()
		return fmt.Errorf("loading archive: %w", err)
	}
	if _, ok := archive[id]; !ok && !removed {
		e.mu.Unlock()
		return nil
	}
	delete(archive, id)

	if err := e.repo.SaveArchive(ctx, archive); err != nil {
		e.mu.Unlock()
		return fmt.Errorf("saving archive: %w", err)
	}
	if err := e.repo.SaveHistory(ctx, kept); err != nil {
		e.mu.Unlock()
		return fmt.Errorf("saving history: %w", err)
	}
	e.history = kept
	e.mu.Unlock()
	e.changed()
	return nil
}

// Snapshot returns the full engine state for synchronization.
func (e *Engine) Snapshot(ctx context.Context) (history []Summary, active *Match, archive map[string]Match, err error) {
	archive, err = e.repo.Archive(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading archive: %w", err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Summary(nil), e.history...), e.active.Clone(), archive, nil
}

// ReplaceAll overwrites the engine state wholesale. Used when a remote
// snapshot is authoritative (whole-document last-writer-wins).
func (e *Engine) ReplaceAll(ctx context.Context, history []Summary, active *Match, archive map[string]Match) error {
	e.mu.Lock()
	if history == nil {
		history = []Summary{}
	}
	if archive == nil {
		archive = map[string]Match{}
	}
	e.history = history
	e.active = active.Clone()

	if err := e.repo.SaveHistory(ctx, history); err != nil {
		e.mu.Unlock()
		return fmt.Errorf("saving history: %w", err)
	}
	if err := e.repo.SaveArchive(ctx, archive); err != nil {
		e.mu.Unlock()
		return fmt.Errorf("saving archive: %w", err)
	}
	err := e.repo.SaveActiveMatch(ctx, e.active)
	e.mu.Unlock()
	e.changed()
	if err != nil {
		return fmt.Errorf("saving active match: %w", err)
	}
	return nil
}
