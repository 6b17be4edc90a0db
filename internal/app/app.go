// Package app wires configuration, storage, auth, the game service and the
// HTTP surface into one runnable unit.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"example.com/impostor/internal/auth"
	"example.com/impostor/internal/config"
	"example.com/impostor/internal/game"
	"example.com/impostor/internal/httpapi"
	"example.com/impostor/internal/migrate"
	"example.com/impostor/internal/notify"
	"example.com/impostor/internal/ratelimit"
	"example.com/impostor/internal/store"
)

type App struct {
	cfg config.Config
	log *slog.Logger

	db     *pgxpool.Pool
	rdb    *redis.Client
	limits *ratelimit.Limiter
	srv    *http.Server
}

// New connects to Postgres and Redis, fails fast if either is unreachable,
// then assembles the service graph.
func New(ctx context.Context, cfg config.Config, log *slog.Logger, static http.Handler) (*App, error) {
	db, err := pgxpool.New(ctx, cfg.Postgres.URL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if cfg.Postgres.RunMigrations {
		if err := migrate.Up(ctx, db, cfg.Postgres.MigrationsDir); err != nil {
			db.Close()
			return nil, err
		}
		log.Info("migrations applied", "dir", cfg.Postgres.MigrationsDir)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	if err := rdb.Ping(ctx).Err(); err != nil {
		db.Close()
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	creds := auth.NewService([]byte(cfg.Auth.Secret), cfg.Auth.CredentialTTL)
	broker := notify.NewRedisBroker(rdb)

	// Mutating actions get the tight quota, reads the loose one.
	limits := ratelimit.New(cfg.RateLimit.Window, map[string]int{
		"create_room":          cfg.RateLimit.MutateQuota,
		"register_participant": cfg.RateLimit.MutateQuota,
		"start_round":          cfg.RateLimit.MutateQuota,
		"new_round":            cfg.RateLimit.MutateQuota,
		"update_room":          cfg.RateLimit.MutateQuota,
		"delete_room":          cfg.RateLimit.MutateQuota,
		"leave_room":           cfg.RateLimit.MutateQuota,
		"import_words":         cfg.RateLimit.MutateQuota,
		"get_players":          cfg.RateLimit.ReadQuota,
		"get_my_role":          cfg.RateLimit.ReadQuota,
		"get_categories":       cfg.RateLimit.ReadQuota,
		"room_qr":              cfg.RateLimit.ReadQuota,
	}, cfg.RateLimit.MutateQuota)

	rooms := game.NewService(store.NewRoomStore(db), game.NewAssigner(), creds, broker, log)

	api := &httpapi.Server{
		Rooms:      rooms,
		Creds:      creds,
		Limits:     limits,
		Broker:     broker,
		Categories: store.NewCategoryStore(db),
		Log:        log,
		PublicURL:  cfg.HTTP.PublicURL,
	}

	mux := http.NewServeMux()
	api.RegisterRoutes(mux)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if static != nil {
		mux.Handle("/", static)
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}

	return &App{cfg: cfg, log: log, db: db, rdb: rdb, limits: limits, srv: srv}, nil
}

// Run serves HTTP until ctx is cancelled, then drains connections within the
// configured shutdown timeout.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.log.Info("http server listening", "addr", a.srv.Addr, "env", a.cfg.Env)
		if err := a.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
		defer cancel()
		a.log.Info("shutting down http server")
		return a.srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (a *App) Close() {
	a.limits.Stop()
	_ = a.rdb.Close()
	a.db.Close()
}
