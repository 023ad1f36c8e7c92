package server

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/goalside/matchtrack/internal/settings"
)

// Syncer re-runs sync activation when the token changes. Nil when sync
// is disabled.
type Syncer interface {
	Activate(ctx context.Context, token string)
}

func validTheme(t settings.Theme) bool {
	switch t {
	case settings.ThemeLight, settings.ThemeDark, settings.ThemeSystem:
		return true
	}
	return false
}

// activateIfChanged kicks off sync activation in the background when the
// token changed. Activation talks to the network, so it never runs on
// the request path.
func activateIfChanged(syncer Syncer, prev, next string) {
	if syncer == nil || prev == next {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		syncer.Activate(ctx, next)
	}()
}

func handleGetSettings(st *settings.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, st.Current())
	}
}

func handleUpdateSettings(logger *slog.Logger, st *settings.Service, syncer Syncer, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req settings.Settings
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.PeriodsCount < 1 || req.PeriodDuration < 1 {
			writeError(w, http.StatusBadRequest, "periodsCount and periodDuration must be positive")
			return
		}
		if req.Theme != "" && !validTheme(req.Theme) {
			writeError(w, http.StatusBadRequest, "unknown theme")
			return
		}

		prevToken := st.Current().SyncToken
		if err := st.ReplaceAll(r.Context(), req); err != nil {
			logger.Error("updating settings failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		broker.Publish(Event{Type: EventSettings})
		activateIfChanged(syncer, prevToken, st.Current().SyncToken)
		writeJSON(w, http.StatusOK, st.Current())
	}
}

func handleUpdatePeriods(logger *slog.Logger, st *settings.Service, broker *Broker) http.HandlerFunc {
	type request struct {
		PeriodsCount   int `json:"periodsCount"`
		PeriodDuration int `json:"periodDuration"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.PeriodsCount < 1 || req.PeriodDuration < 1 {
			writeError(w, http.StatusBadRequest, "periodsCount and periodDuration must be positive")
			return
		}

		if err := st.UpdatePeriods(r.Context(), req.PeriodsCount, req.PeriodDuration); err != nil {
			logger.Error("updating periods failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		broker.Publish(Event{Type: EventSettings})
		writeJSON(w, http.StatusOK, st.Current())
	}
}

func handleUpdateTeamName(logger *slog.Logger, st *settings.Service, broker *Broker) http.HandlerFunc {
	type request struct {
		TeamName string `json:"teamName"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if err := st.UpdateTeamName(r.Context(), req.TeamName); err != nil {
			logger.Error("updating team name failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		broker.Publish(Event{Type: EventSettings})
		writeJSON(w, http.StatusOK, st.Current())
	}
}

func handleUpdateTheme(logger *slog.Logger, st *settings.Service, broker *Broker) http.HandlerFunc {
	type request struct {
		Theme settings.Theme `json:"theme"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if !validTheme(req.Theme) {
			writeError(w, http.StatusBadRequest, "unknown theme")
			return
		}

		if err := st.UpdateTheme(r.Context(), req.Theme); err != nil {
			logger.Error("updating theme failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		broker.Publish(Event{Type: EventSettings})
		writeJSON(w, http.StatusOK, st.Current())
	}
}

func handleUpdateSyncToken(logger *slog.Logger, st *settings.Service, syncer Syncer, broker *Broker) http.HandlerFunc {
	type request struct {
		SyncToken string `json:"syncToken"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		prev := st.Current().SyncToken
		if err := st.UpdateSyncToken(r.Context(), req.SyncToken); err != nil {
			logger.Error("updating sync token failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		broker.Publish(Event{Type: EventSettings})
		activateIfChanged(syncer, prev, st.Current().SyncToken)
		writeJSON(w, http.StatusOK, st.Current())
	}
}

func handleAddPlayer(logger *slog.Logger, st *settings.Service, broker *Broker) http.HandlerFunc {
	type request struct {
		Name string `json:"name"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if err := st.AddPlayer(r.Context(), req.Name); err != nil {
			logger.Error("adding player failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		broker.Publish(Event{Type: EventSettings})
		writeJSON(w, http.StatusOK, st.Current())
	}
}

func handleRemovePlayer(logger *slog.Logger, st *settings.Service, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name, err := url.PathUnescape(chi.URLParam(r, "name"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid player name")
			return
		}

		if err := st.RemovePlayer(r.Context(), name); err != nil {
			logger.Error("removing player failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		broker.Publish(Event{Type: EventSettings})
		writeJSON(w, http.StatusOK, st.Current())
	}
}
