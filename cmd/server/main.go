package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"lathera/internal/config"
	"lathera/internal/db"
	"lathera/internal/db/mock"
	applog "lathera/internal/log"
	"lathera/internal/oils"
	"lathera/internal/server"
	"lathera/models"
)

type serverLifecycle interface {
	Start() error
	Stop(ctx context.Context) error
}

var (
	loadConfigFunc      = config.Load
	setLogLevelFunc     = applog.SetLevel
	newMockDatabaseFunc = mock.New
	configureDatabase   = db.Configure
	newServerFunc       = func(cfg server.Config) (serverLifecycle, error) {
		return server.New(cfg)
	}
	subscribeShutdownSig = func() (<-chan os.Signal, func()) {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		return ch, func() { signal.Stop(ch) }
	}
)

func main() {
	os.Exit(run(context.Background()))
}

func run(ctx context.Context) int {
	cfg, err := loadConfigFunc()
	if err != nil {
		applog.Error(ctx, "failed to load configuration", "error", err)
		return 1
	}
	if err := setLogLevelFunc(cfg.Logging.Level); err != nil {
		applog.Error(ctx, "invalid log level", "level", cfg.Logging.Level, "error", err)
		return 1
	}

	lib, err := oils.Default()
	if err != nil {
		applog.Error(ctx, "failed to load oil library", "error", err)
		return 1
	}

	database, err := openDatabase(ctx, cfg.Database, lib)
	if err != nil {
		applog.Error(ctx, "failed to configure database", "error", err)
		return 1
	}

	srv, err := newServerFunc(server.Config{
		Addr:         cfg.Server.Addr,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Session: server.SessionConfig{
			Lifetime:     cfg.Auth.Session.Lifetime,
			CookieName:   cfg.Auth.Session.CookieName,
			CookieDomain: cfg.Auth.Session.CookieDomain,
			CookieSecure: cfg.Auth.Session.CookieSecure,
		},
		Database: database,
		Library:  lib,
		Defaults: cfg.Calculator.Defaults,
	})
	if err != nil {
		applog.Error(ctx, "failed to build server", "error", err)
		return 1
	}

	sigCh, unsubscribe := subscribeShutdownSig()
	defer unsubscribe()

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		select {
		case sig := <-sigCh:
			applog.Info(ctx, "shutdown signal received", "signal", sig.String())
		case <-gctx.Done():
			if ctx.Err() == nil {
				return nil
			}
			applog.Info(ctx, "context cancelled, shutting down")
		}
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Stop(stopCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		applog.Error(ctx, "server stopped with error", "error", err)
		return 1
	}
	applog.Info(ctx, "server stopped")
	return 0
}

// openDatabase returns nil when no database is configured; the API then
// serves oils from the embedded library and disables saved formulations.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig, lib *oils.Library) (*gorm.DB, error) {
	if cfg.UseMock {
		applog.Info(ctx, "using in-memory mock database")
		return newMockDatabaseFunc(ctx)
	}
	if cfg.URL == "" {
		applog.Warn(ctx, "DATABASE_URL not set, running without persistence")
		return nil, nil
	}

	database, err := configureDatabase(cfg)
	if err != nil {
		return nil, err
	}

	var count int64
	if err := database.WithContext(ctx).Model(&models.Oil{}).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		created, err := oils.NewStore(database).Seed(ctx, lib)
		if err != nil {
			return nil, err
		}
		applog.Info(ctx, "seeded oil library", "oils", created)
	}
	return database, nil
}
