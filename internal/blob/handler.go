package blob

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// 4 MB is far beyond any realistic season of match data.
const maxBlobBytes = 4 << 20

// Handler serves GET and PUT /{token} over a Store. Mount it at the sync
// base path, e.g. /v1/state.
func Handler(logger *slog.Logger, s Store) http.Handler {
	r := chi.NewRouter()
	r.Get("/{token}", handleGet(logger, s))
	r.Put("/{token}", handlePut(logger, s))
	return r
}

func handleGet(logger *slog.Logger, s Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := chi.URLParam(r, "token")

		state, err := s.Get(r.Context(), token)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "no state for token")
			return
		}
		if err != nil {
			logger.Error("reading state blob failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(state)
	}
}

func handlePut(logger *slog.Logger, s Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := chi.URLParam(r, "token")

		body, err := io.ReadAll(io.LimitReader(r.Body, maxBlobBytes+1))
		if err != nil {
			writeError(w, http.StatusBadRequest, "reading body failed")
			return
		}
		if len(body) > maxBlobBytes {
			writeError(w, http.StatusRequestEntityTooLarge, "state blob too large")
			return
		}
		if !json.Valid(body) {
			writeError(w, http.StatusBadRequest, "body must be valid JSON")
			return
		}

		if err := s.Put(r.Context(), token, body); err != nil {
			logger.Error("writing state blob failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
