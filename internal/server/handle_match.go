package server

import (
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/goalside/matchtrack/internal/match"
)

type StartMatchRequest struct {
	MyTeamName   string `json:"myTeamName"`
	OpponentName string `json:"opponentName"`
	IsHome       bool   `json:"isHome"`
}

// TimelineEntry is one display row of the merged goal/event timeline,
// sorted by timestamp.
type TimelineEntry struct {
	Kind      string `json:"kind"` // "goal" or "event"
	ID        string `json:"id"`
	Type      string `json:"type"`
	Team      string `json:"team,omitempty"`
	Scorer    string `json:"scorer,omitempty"`
	Assist    string `json:"assist,omitempty"`
	Label     string `json:"label,omitempty"`
	Time      string `json:"time"`
	Timestamp int64  `json:"timestamp"`
}

type MatchStateResponse struct {
	Match          *match.Match    `json:"match"`
	Score          match.Score     `json:"score"`
	ElapsedSeconds int64           `json:"elapsedSeconds"`
	TimerState     string          `json:"timerState"`
	Timeline       []TimelineEntry `json:"timeline"`
}

func matchState(m *match.Match, now time.Time) MatchStateResponse {
	return MatchStateResponse{
		Match:          m,
		Score:          m.Score(),
		ElapsedSeconds: m.Elapsed(now),
		TimerState:     m.TimerState().String(),
		Timeline:       timeline(m),
	}
}

// timeline merges goals and events sorted by timestamp. Insertion order
// can drift from timestamp order after deletions, so the display sorts.
func timeline(m *match.Match) []TimelineEntry {
	entries := make([]TimelineEntry, 0, len(m.Goals)+len(m.Events))
	for _, g := range m.Goals {
		entries = append(entries, TimelineEntry{
			Kind:      "goal",
			ID:        g.ID,
			Type:      string(g.Type),
			Team:      string(g.Team),
			Scorer:    g.Scorer,
			Assist:    g.Assist,
			Time:      g.Time,
			Timestamp: g.Timestamp,
		})
	}
	for _, ev := range m.Events {
		entries = append(entries, TimelineEntry{
			Kind:      "event",
			ID:        ev.ID,
			Type:      string(ev.Type),
			Label:     ev.Label,
			Time:      ev.Time,
			Timestamp: ev.Timestamp,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp < entries[j].Timestamp
	})
	return entries
}

func handleStartMatch(logger *slog.Logger, eng *match.Engine, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req StartMatchRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		m, err := eng.StartMatch(r.Context(), req.MyTeamName, req.OpponentName, req.IsHome)
		if errors.Is(err, match.ErrMatchInProgress) {
			writeError(w, http.StatusConflict, "a match is already in progress")
			return
		}
		if err != nil {
			logger.Error("starting match failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		broker.Publish(Event{Type: EventMatchStarted})
		writeJSON(w, http.StatusCreated, matchState(m, time.Now()))
	}
}

func handleMatchState(eng *match.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m := eng.ActiveMatch()
		if m == nil {
			writeError(w, http.StatusNotFound, "no active match")
			return
		}
		writeJSON(w, http.StatusOK, matchState(m, time.Now()))
	}
}

func handleEndMatch(logger *slog.Logger, eng *match.Engine, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := eng.EndMatch(r.Context())
		if err != nil {
			logger.Error("ending match failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if summary == nil {
			writeError(w, http.StatusNotFound, "no active match")
			return
		}

		broker.Publish(Event{Type: EventMatchEnded})
		writeJSON(w, http.StatusOK, summary)
	}
}
