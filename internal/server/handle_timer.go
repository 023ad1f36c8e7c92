package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/goalside/matchtrack/internal/match"
)

// timerMutation runs one engine timer operation and answers with the
// refreshed match state. All three timer endpoints share the shape.
func timerMutation(logger *slog.Logger, eng *match.Engine, broker *Broker, op func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if eng.ActiveMatch() == nil {
			writeError(w, http.StatusConflict, "no active match")
			return
		}

		if err := op(r.Context()); err != nil {
			logger.Error("timer operation failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		broker.Publish(Event{Type: EventTimer})
		writeJSON(w, http.StatusOK, matchState(eng.ActiveMatch(), time.Now()))
	}
}

func handleToggleTimer(logger *slog.Logger, eng *match.Engine, broker *Broker) http.HandlerFunc {
	return timerMutation(logger, eng, broker, eng.ToggleTimer)
}

func handleStartPeriod(logger *slog.Logger, eng *match.Engine, broker *Broker) http.HandlerFunc {
	return timerMutation(logger, eng, broker, eng.StartPeriod)
}

func handleEndPeriod(logger *slog.Logger, eng *match.Engine, broker *Broker) http.HandlerFunc {
	return timerMutation(logger, eng, broker, eng.EndPeriod)
}
