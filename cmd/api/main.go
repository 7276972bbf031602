// Package main runs the library ledger HTTP API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"libraryledger/internal/app"
	"libraryledger/internal/clock"
	"libraryledger/internal/config"
	"libraryledger/internal/repository"
	"libraryledger/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Logging.Level)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	shutdownTracing, err := app.SetupTracing(ctx, cfg.Tracing, log)
	if err != nil {
		log.Errorw("tracing initialization error", "error", err)
		return
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	shutdownMetrics, err := app.SetupMetrics(ctx, cfg.Tracing, log)
	if err != nil {
		log.Errorw("metrics initialization error", "error", err)
		return
	}
	defer func() { _ = shutdownMetrics(context.Background()) }()

	clk, err := clock.NewSystem(cfg.Ledger.Timezone)
	if err != nil {
		log.Errorw("invalid ledger timezone", "timezone", cfg.Ledger.Timezone, "error", err)
		return
	}

	repo, err := repository.New(ctx, log, cfg)
	if err != nil {
		log.Errorw("repository initialization error", "error", err)
		return
	}
	if err := repo.OnStart(ctx); err != nil {
		log.Errorw("repository start error", "error", err)
		return
	}
	defer func() {
		_ = repo.OnStop(context.Background())
	}()

	svc := app.NewServices(cfg, repo, clk, log)
	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           app.NewRouter(cfg, svc, log),
		ReadHeaderTimeout: cfg.HTTP.RequestTimeout,
	}

	go func() {
		log.Infow("listening", "addr", srv.Addr, "storage", cfg.Storage.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorw("failed to start server", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warnw("server shutdown timeout", "timeout", cfg.Server.ShutdownTimeout, "error", err)
	}
}
