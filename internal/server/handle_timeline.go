package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/goalside/matchtrack/internal/match"
)

type AddEventRequest struct {
	Type  string `json:"type"`
	Label string `json:"label"`
}

func validEventType(t string) bool {
	switch match.EventType(t) {
	case match.EventStart, match.EventPause, match.EventResume,
		match.EventHalfTime, match.EventFullTime, match.EventPeriodEnd:
		return true
	}
	return false
}

func handleAddEvent(logger *slog.Logger, eng *match.Engine, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddEventRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if !validEventType(req.Type) {
			writeError(w, http.StatusBadRequest, "unknown event type")
			return
		}

		if eng.ActiveMatch() == nil {
			writeError(w, http.StatusConflict, "no active match")
			return
		}

		if err := eng.AddEvent(r.Context(), match.EventType(req.Type), req.Label); err != nil {
			logger.Error("adding event failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		broker.Publish(Event{Type: EventTimeline})
		writeJSON(w, http.StatusCreated, matchState(eng.ActiveMatch(), time.Now()))
	}
}

func handleDeleteEvent(logger *slog.Logger, eng *match.Engine, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		if err := eng.DeleteEvent(r.Context(), id); err != nil {
			logger.Error("deleting event failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		broker.Publish(Event{Type: EventTimeline})
		w.WriteHeader(http.StatusNoContent)
	}
}

func handleUndo(logger *slog.Logger, eng *match.Engine, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := eng.UndoLast(r.Context()); err != nil {
			logger.Error("undo failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		broker.Publish(Event{Type: EventUndo})

		m := eng.ActiveMatch()
		if m == nil {
			writeError(w, http.StatusNotFound, "no active match")
			return
		}
		writeJSON(w, http.StatusOK, matchState(m, time.Now()))
	}
}
