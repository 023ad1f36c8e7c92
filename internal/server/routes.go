package server

import (
	"database/sql"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/goalside/matchtrack/internal/blob"
	"github.com/goalside/matchtrack/internal/match"
	"github.com/goalside/matchtrack/internal/settings"
)

// AddRoutes attaches the full tracker API. syncer may be nil when no
// remote sync endpoint is configured.
func AddRoutes(r chi.Router, logger *slog.Logger, eng *match.Engine, st *settings.Service, syncer Syncer, broker *Broker, blobs blob.Store, db *sql.DB, spaDir string) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("MatchTrack API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(logger, db))
	r.Get("/ws/clock", handleClock(logger, eng))

	r.Route("/api", func(r chi.Router) {
		r.Route("/match", func(r chi.Router) {
			r.Post("/", handleStartMatch(logger, eng, broker))
			r.Get("/", handleMatchState(eng))
			r.Delete("/", handleEndMatch(logger, eng, broker))
			r.Get("/stream", handleStream(broker))

			r.Post("/goals", handleAddGoal(logger, eng, broker))
			r.Delete("/goals/{id}", handleDeleteGoal(logger, eng, broker))
			r.Post("/events", handleAddEvent(logger, eng, broker))
			r.Delete("/events/{id}", handleDeleteEvent(logger, eng, broker))
			r.Post("/undo", handleUndo(logger, eng, broker))

			r.Post("/timer/toggle", handleToggleTimer(logger, eng, broker))
			r.Post("/period/start", handleStartPeriod(logger, eng, broker))
			r.Post("/period/end", handleEndPeriod(logger, eng, broker))
		})

		r.Get("/history", handleHistory(eng))
		r.Get("/history/{id}", handleMatchDetails(logger, eng))
		r.Delete("/history/{id}", handleDeleteMatch(logger, eng, broker))

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", handleGetSettings(st))
			r.Put("/", handleUpdateSettings(logger, st, syncer, broker))
			r.Put("/team", handleUpdateTeamName(logger, st, broker))
			r.Put("/periods", handleUpdatePeriods(logger, st, broker))
			r.Put("/theme", handleUpdateTheme(logger, st, broker))
			r.Put("/token", handleUpdateSyncToken(logger, st, syncer, broker))
			r.Post("/players", handleAddPlayer(logger, st, broker))
			r.Delete("/players/{name}", handleRemovePlayer(logger, st, broker))
		})
	})

	// This instance can serve as the sync endpoint for other devices.
	r.Mount("/v1/state", blob.Handler(logger, blobs))

	if spaDir != "" {
		if info, err := os.Stat(spaDir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", spaDir)
			r.NotFound(handleSPA(spaDir))
		}
	}
}
