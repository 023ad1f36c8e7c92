// Package match owns the active match aggregate: its goal and event log,
// the period/timer state, and the score and elapsed-time derivations.
package match

import "time"

// Team identifies which side a goal is attributed to.
type Team string

const (
	TeamMine     Team = "my-team"
	TeamOpponent Team = "opponent"
)

// GoalType classifies a scoring event.
type GoalType string

const (
	GoalNormal  GoalType = "normal"
	GoalPenalty GoalType = "penalty"
	GoalOwn     GoalType = "own-goal"
	GoalHeader  GoalType = "header"
)

// EventType classifies a non-scoring timeline entry.
type EventType string

const (
	EventStart     EventType = "start"
	EventPause     EventType = "pause"
	EventResume    EventType = "resume"
	EventHalfTime  EventType = "half-time"
	EventFullTime  EventType = "full-time"
	EventPeriodEnd EventType = "period-end"
)

// Goal is one scoring event. Scorer and Assist are only meaningful when
// Team is TeamMine; for opponent goals they are always empty.
type Goal struct {
	ID        string   `json:"id"`
	Team      Team     `json:"team"`
	Scorer    string   `json:"scorer,omitempty"`
	Assist    string   `json:"assist,omitempty"`
	Type      GoalType `json:"type"`
	Time      string   `json:"time"`
	Timestamp int64    `json:"timestamp"`
}

// GameEvent is one non-scoring timeline entry, e.g. "Start Period 2".
type GameEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Label     string    `json:"label,omitempty"`
	Time      string    `json:"time"`
	Timestamp int64     `json:"timestamp"`
}

// Match is the active or archived match aggregate. Timestamps are
// milliseconds since epoch to keep the serialized form stable across
// devices regardless of local time zone.
type Match struct {
	ID              string      `json:"id"`
	MyTeamName      string      `json:"myTeamName"`
	OpponentName    string      `json:"opponentName"`
	IsHome          bool        `json:"isHome"`
	Goals           []Goal      `json:"goals"`
	Events          []GameEvent `json:"events"`
	StartedAt       int64       `json:"startedAt"`
	EndedAt         int64       `json:"endedAt,omitempty"`
	IsActive        bool        `json:"isActive"`
	IsRunning       bool        `json:"isRunning"`
	TotalPausedTime int64       `json:"totalPausedTime"`
	PausedAt        int64       `json:"pausedAt,omitempty"`
	CurrentPeriod   int         `json:"currentPeriod"`
}

// Summary is the score-only projection of a finalized match kept in the
// history list.
type Summary struct {
	ID            string `json:"id"`
	MyTeamName    string `json:"myTeamName"`
	OpponentName  string `json:"opponentName"`
	IsHome        bool   `json:"isHome"`
	MyTeamScore   int    `json:"myTeamScore"`
	OpponentScore int    `json:"opponentScore"`
	Date          string `json:"date"`
	EndedAt       int64  `json:"endedAt"`
}

// Score is the derived scoreboard for a match.
type Score struct {
	MyTeam   int `json:"myTeam"`
	Opponent int `json:"opponent"`
}

// TimerState is the explicit timer state. The serialized Match encodes it
// across IsRunning, PausedAt, and the last event's type; TimerState makes
// the combination a single tagged value.
type TimerState int

const (
	TimerRunning TimerState = iota
	TimerPaused
	TimerPeriodEnded
)

func (s TimerState) String() string {
	switch s {
	case TimerRunning:
		return "running"
	case TimerPaused:
		return "paused"
	case TimerPeriodEnded:
		return "period-ended"
	}
	return "unknown"
}

// TimerState derives the explicit timer state from the aggregate fields.
// A trailing period-end event marks the match as between periods; the
// timer must not silently auto-run out of that state.
func (m *Match) TimerState() TimerState {
	if m.IsRunning {
		return TimerRunning
	}
	if n := len(m.Events); n > 0 && m.Events[n-1].Type == EventPeriodEnd {
		return TimerPeriodEnded
	}
	return TimerPaused
}

// Score derives the scoreboard from the goal log. An own goal always
// credits the other side: an opponent own goal counts for my team, and a
// my-team own goal counts for the opponent. Order-independent.
func (m *Match) Score() Score {
	var s Score
	for _, g := range m.Goals {
		mine := g.Team == TeamMine
		if g.Type == GoalOwn {
			mine = !mine
		}
		if mine {
			s.MyTeam++
		} else {
			s.Opponent++
		}
	}
	return s
}

// Elapsed returns whole seconds of running time at now: the reference
// instant minus the start minus all accumulated pause time. While paused
// the reference is the pause instant, so the clock holds still.
func (m *Match) Elapsed(now time.Time) int64 {
	ref := now.UnixMilli()
	if !m.IsRunning && m.PausedAt != 0 {
		ref = m.PausedAt
	}
	elapsed := (ref - m.StartedAt - m.TotalPausedTime) / 1000
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// Clone returns a deep copy so callers can hand snapshots out without
// sharing the goal and event slices.
func (m *Match) Clone() *Match {
	if m == nil {
		return nil
	}
	cp := *m
	cp.Goals = append([]Goal(nil), m.Goals...)
	cp.Events = append([]GameEvent(nil), m.Events...)
	return &cp
}
