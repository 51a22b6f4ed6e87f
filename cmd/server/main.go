package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sahar-erp/api/internal/config"
	"github.com/sahar-erp/api/internal/database"
	"github.com/sahar-erp/api/internal/events"
	"github.com/sahar-erp/api/internal/logging"
	"github.com/sahar-erp/api/internal/router"
	"github.com/sahar-erp/api/internal/service"
	"github.com/sahar-erp/api/internal/session"
	"github.com/sahar-erp/api/internal/ws"
)

const (
	sessionPrefix   = "sahar:session:"
	sweepInterval   = 10 * time.Minute
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	if err := database.Migrate(cfg.DatabaseURL); err != nil {
		return err
	}
	slog.Info("migrations applied")

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		return err
	}
	queries := database.New(pool)

	store, closeStore, err := sessionStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	sessions := session.NewManager(store, cfg.SessionTTL, cfg.SessionRefreshInterval)

	var broker events.Publisher
	if cfg.AMQPURL != "" {
		p, err := events.DialAMQP(cfg.AMQPURL, cfg.EventsExchange)
		if err != nil {
			return err
		}
		defer p.Close()
		broker = p
		slog.Info("publishing order events", "exchange", cfg.EventsExchange)
	}

	hub := ws.NewHub()
	go hub.Run(ctx)

	reconciler := service.NewReconciler(queries, cfg.ReconcileInterval, cfg.ReconcileGrace)
	go reconciler.Run(ctx)

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: router.New(cfg, router.Deps{
			Queries:   queries,
			Pool:      pool,
			Hub:       hub,
			Sessions:  sessions,
			Publisher: broker,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// sessionStore uses Redis when configured, otherwise an in-process store
// swept periodically.
func sessionStore(ctx context.Context, cfg *config.Config) (session.Store, func(), error) {
	if cfg.RedisURL != "" {
		client, err := session.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("sessions stored in redis")
		return session.NewRedisStore(client, sessionPrefix), func() { _ = client.Close() }, nil
	}

	mem := session.NewMemoryStore()
	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := mem.Sweep(); n > 0 {
					slog.Debug("swept expired sessions", "count", n)
				}
			}
		}
	}()
	slog.Warn("REDIS_URL not set, sessions kept in memory")
	return mem, func() {}, nil
}
