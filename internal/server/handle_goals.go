package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/goalside/matchtrack/internal/match"
)

type AddGoalRequest struct {
	Team   string `json:"team"`
	Scorer string `json:"scorer"`
	Assist string `json:"assist"`
	Type   string `json:"type"`
}

func validGoalType(t string) bool {
	switch match.GoalType(t) {
	case match.GoalNormal, match.GoalPenalty, match.GoalOwn, match.GoalHeader:
		return true
	}
	return t == ""
}

func handleAddGoal(logger *slog.Logger, eng *match.Engine, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddGoalRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		team := match.Team(req.Team)
		if team != match.TeamMine && team != match.TeamOpponent {
			writeError(w, http.StatusBadRequest, "team must be my-team or opponent")
			return
		}
		if !validGoalType(req.Type) {
			writeError(w, http.StatusBadRequest, "unknown goal type")
			return
		}

		if eng.ActiveMatch() == nil {
			writeError(w, http.StatusConflict, "no active match")
			return
		}

		if err := eng.AddGoal(r.Context(), team, req.Scorer, req.Assist, match.GoalType(req.Type)); err != nil {
			logger.Error("adding goal failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		broker.Publish(Event{Type: EventGoal})
		writeJSON(w, http.StatusCreated, matchState(eng.ActiveMatch(), time.Now()))
	}
}

func handleDeleteGoal(logger *slog.Logger, eng *match.Engine, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		// Unknown ids are a silent no-op, matching the engine policy.
		if err := eng.DeleteGoal(r.Context(), id); err != nil {
			logger.Error("deleting goal failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		broker.Publish(Event{Type: EventGoal})
		w.WriteHeader(http.StatusNoContent)
	}
}
