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

	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/accounts/internal/app"
	"github.com/odyssey-erp/accounts/internal/auth"
	"github.com/odyssey-erp/accounts/internal/observability"
	"github.com/odyssey-erp/accounts/internal/platform/db"
	"github.com/odyssey-erp/accounts/internal/users"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("accounts service stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		return err
	}
	defer dbpool.Close()

	if cfg.PGRunMigrations {
		if err := db.Migrate(ctx, dbpool); err != nil {
			return err
		}
		logger.Info("database migrations applied")
	}

	issuer, err := auth.NewIssuer([]byte(cfg.JWTSecret), cfg.SessionTTL)
	if err != nil {
		return err
	}
	metrics := observability.NewMetrics()

	usersRepo := users.NewRepository(dbpool)
	usersService, err := users.NewService(usersRepo, auth.NewBcryptHasher(cfg.BcryptCost), issuer, metrics)
	if err != nil {
		return err
	}
	sessions := auth.Middleware{Issuer: issuer, CookieName: cfg.SessionCookieName, Logger: logger}
	usersHandler := users.NewHandler(logger, usersService, users.CookieConfig{
		Name:   cfg.SessionCookieName,
		MaxAge: cfg.SessionTTL,
	}, sessions)

	router := app.NewRouter(app.RouterParams{
		Logger:       logger,
		Config:       cfg,
		UsersHandler: usersHandler,
		Metrics:      metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
