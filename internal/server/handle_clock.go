package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"nhooyr.io/websocket"

	"github.com/goalside/matchtrack/internal/match"
)

// ClockTick is pushed once per second over the clock websocket while a
// client displays the scoreboard. Elapsed time is a pure derivation of
// the match fields, so the tick never mutates state.
type ClockTick struct {
	Active         bool        `json:"active"`
	Running        bool        `json:"running"`
	Period         int         `json:"period"`
	ElapsedSeconds int64       `json:"elapsedSeconds"`
	Score          match.Score `json:"score"`
}

func clockTick(eng *match.Engine, now time.Time) ClockTick {
	m := eng.ActiveMatch()
	if m == nil {
		return ClockTick{}
	}
	return ClockTick{
		Active:         true,
		Running:        m.IsRunning,
		Period:         m.CurrentPeriod,
		ElapsedSeconds: m.Elapsed(now),
		Score:          m.Score(),
	}
}

func handleClock(logger *slog.Logger, eng *match.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		ctx, cancel := context.WithTimeout(r.Context(), 4*time.Hour)
		defer cancel()

		write := func(now time.Time) error {
			data, err := json.Marshal(clockTick(eng, now))
			if err != nil {
				return err
			}
			return conn.Write(ctx, websocket.MessageText, data)
		}

		if err := write(time.Now()); err != nil {
			return
		}

		tick := time.NewTicker(time.Second)
		defer tick.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case now := <-tick.C:
				if err := write(now); err != nil {
					logger.Debug("clock write ended", "error", err)
					return
				}
			}
		}
	}
}
