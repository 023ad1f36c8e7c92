// syncd is the standalone sync endpoint: it stores whole state blobs
// keyed by sync token, in redis when REDIS_URL is set, otherwise in a
// local SQLite database.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/goalside/matchtrack/internal/blob"
	"github.com/goalside/matchtrack/internal/config"
	"github.com/goalside/matchtrack/internal/database"
	"github.com/goalside/matchtrack/internal/migrations"
	"github.com/goalside/matchtrack/internal/server"
	"github.com/goalside/matchtrack/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.LoadSyncd()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	var blobs blob.Store
	var ping func(context.Context) error

	if cfg.RedisURL != "" {
		rdb, err := openRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()
		logger.Info("connected to redis")

		blobs = blob.NewRedisStore(rdb)
		ping = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	} else {
		db, err := database.Open(ctx, cfg.DBPath)
		if err != nil {
			return fmt.Errorf("connecting to sqlite: %w", err)
		}
		defer db.Close()

		if err := migrations.Run(db); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		logger.Info("connected to sqlite", "path", cfg.DBPath)

		blobs = blob.NewKVStore(store.NewSQLiteKV(db))
		ping = db.PingContext
	}

	srv := server.New(cfg.HTTPAddr, logger, func(r chi.Router) {
		r.Get("/healthz", handleHealth(logger, ping))
		r.Mount("/v1/state", blob.Handler(logger, blobs))
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}

func handleHealth(logger *slog.Logger, ping func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		result := map[string]string{"status": "ok"}
		if err := ping(ctx); err != nil {
			logger.Error("health check failed", "error", err)
			status = http.StatusServiceUnavailable
			result["status"] = "error"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(result)
	}
}
