package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/goalside/matchtrack/internal/blob"
	"github.com/goalside/matchtrack/internal/config"
	"github.com/goalside/matchtrack/internal/database"
	"github.com/goalside/matchtrack/internal/match"
	"github.com/goalside/matchtrack/internal/migrations"
	"github.com/goalside/matchtrack/internal/server"
	"github.com/goalside/matchtrack/internal/settings"
	"github.com/goalside/matchtrack/internal/store"
	syncer "github.com/goalside/matchtrack/internal/sync"
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
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- SQLite ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath)

	// --- Domain ---
	kv := store.NewSQLiteKV(db)
	repo := store.NewRepository(kv)

	eng, err := match.New(ctx, repo)
	if err != nil {
		return fmt.Errorf("initializing match engine: %w", err)
	}
	st, err := settings.NewService(ctx, repo)
	if err != nil {
		return fmt.Errorf("initializing settings: %w", err)
	}

	broker := server.NewBroker()

	// --- Sync ---
	var coord *syncer.Coordinator
	if cfg.SyncURL != "" {
		remote := syncer.NewHTTPRemote(cfg.SyncURL)
		coord = syncer.New(syncer.NewAppLocal(eng, st), remote, logger,
			syncer.WithDebounce(cfg.SyncDebounce),
			syncer.WithNotice(func(n syncer.Notice) {
				broker.Publish(server.Event{Type: server.EventSyncNotice, Detail: n.Message})
				if n.Kind == syncer.NoticeSynced {
					broker.Publish(server.Event{Type: server.EventStateReplaced})
				}
			}),
		)
		defer coord.Close()
		logger.Info("sync enabled", "url", cfg.SyncURL)
	}

	onChange := func() {
		if coord != nil {
			coord.Changed()
		}
	}
	eng.OnChange(onChange)
	st.OnChange(onChange)

	var activator server.Syncer
	if coord != nil {
		activator = coord
	}

	blobs := blob.NewKVStore(kv)

	// --- HTTP server ---
	srv := server.New(cfg.HTTPAddr, logger, func(r chi.Router) {
		server.AddRoutes(r, logger, eng, st, activator, broker, blobs, db, cfg.SPADir)
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	if coord != nil {
		if token := st.Current().SyncToken; token != "" {
			// The one-time pull happens off the serving path so a slow
			// remote never delays startup.
			g.Go(func() error {
				coord.Activate(gctx, token)
				return nil
			})
		}
	}

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
