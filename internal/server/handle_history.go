package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/goalside/matchtrack/internal/match"
)

func handleHistory(eng *match.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		history := eng.History()
		if history == nil {
			history = []match.Summary{}
		}
		writeJSON(w, http.StatusOK, history)
	}
}

func handleMatchDetails(logger *slog.Logger, eng *match.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		m, err := eng.MatchDetails(r.Context(), id)
		if err != nil {
			logger.Error("loading match details failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if m == nil {
			writeError(w, http.StatusNotFound, "match not found")
			return
		}

		writeJSON(w, http.StatusOK, MatchStateResponse{
			Match:      m,
			Score:      m.Score(),
			TimerState: m.TimerState().String(),
			Timeline:   timeline(m),
		})
	}
}

func handleDeleteMatch(logger *slog.Logger, eng *match.Engine, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		if err := eng.DeleteMatch(r.Context(), id); err != nil {
			logger.Error("deleting match failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		broker.Publish(Event{Type: EventHistory})
		w.WriteHeader(http.StatusNoContent)
	}
}
