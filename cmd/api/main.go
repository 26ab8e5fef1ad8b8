package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"sitepulse/internal/config"
	"sitepulse/internal/httpapi"
	"sitepulse/internal/logging"
	"sitepulse/internal/probe"
	"sitepulse/internal/repo"
	"sitepulse/internal/repo/postgres"
	"sitepulse/internal/repo/sqlite"
	"sitepulse/internal/scheduler"
	"sitepulse/internal/stats"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "path to YAML config (env vars override)")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.NewLogger(cfg.LogDir)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		websites repo.WebsiteStore
		logs     repo.LogStore
		closer   func() error
	)
	if cfg.DatabaseURL != "" {
		st, err := postgres.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			logger.Fatal("postgres_connect", zap.Error(err))
		}
		websites, logs = st, st
		closer = func() error { st.Close(); return nil }
	} else {
		st, err := sqlite.New(ctx, cfg.SQLitePath)
		if err != nil {
			logger.Fatal("sqlite_open", zap.Error(err))
		}
		websites, logs = st, st
		closer = st.Close
	}

	var checker probe.Checker = probe.NewHTTPChecker(cfg.ProbeTimeout, cfg.SuccessBelow)
	if cfg.RetryAttempts > 1 {
		checker = &probe.RetryChecker{
			Inner:    checker,
			Attempts: cfg.RetryAttempts,
			Backoff:  cfg.RetryBackoff,
		}
	}

	sched := scheduler.New(logger, websites, logs, checker,
		cfg.ProbeInterval, cfg.ProbeTimeout, cfg.Concurrency)
	schedDone := make(chan struct{})
	go func() {
		defer close(schedDone)
		sched.Run(ctx)
	}()

	agg := stats.New(websites, logs, cfg.SuccessBelow)
	api := httpapi.NewServer(logger, websites, agg, cfg.RatePerMin, cfg.RateBurst)

	srv := &http.Server{Addr: cfg.Addr, Handler: api.Router()}
	go func() {
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
	}()

	logger.Info("api_listen", zap.String("addr", cfg.Addr))
	var errs error
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		errs = multierr.Append(errs, err)
	}

	<-schedDone
	errs = multierr.Append(errs, closer())
	if errs != nil {
		logger.Error("shutdown", zap.Error(errs))
		os.Exit(1)
	}
	logger.Info("shutdown_clean")
}
