package main

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"launchpage/app/internal/analytics"
	"launchpage/app/internal/config"
	appdb "launchpage/app/internal/db"
	apphttp "launchpage/app/internal/http"
	"launchpage/app/internal/kv"
	applog "launchpage/app/internal/log"
	"launchpage/app/internal/publish"
	"launchpage/app/internal/shortlink"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return eris.Wrap(err, "failure loading configuration")
	}

	logger, err := applog.NewLogger(cfg.LogLevel)
	if err != nil {
		return eris.Wrap(err, "failure initialising logger")
	}

	sentryHub, flush, err := applog.InitSentry(logger, applog.SentrySettings{
		DSN:         cfg.SentryDSN,
		Environment: cfg.Environment,
	})
	if err != nil {
		return eris.Wrap(err, "failure initialising sentry")
	}
	defer flush()

	dbConn, err := appdb.Open(appdb.Options{Path: cfg.DBPath})
	if err != nil {
		return eris.Wrap(err, "opening database")
	}
	defer func() {
		if closeErr := appdb.Close(dbConn); closeErr != nil {
			logger.WithError(closeErr).Error("closing database")
		}
	}()

	if err := kv.Migrate(ctx, dbConn, logger); err != nil {
		return eris.Wrap(err, "running migrations")
	}

	store, err := kv.NewGormStore(dbConn, logger)
	if err != nil {
		return eris.Wrap(err, "building key-value store")
	}

	gate := kv.NewGate(store, logger)
	recorder := analytics.NewRecorder(gate, logger)

	shortener, err := shortlink.NewShortener(shortlink.Options{
		Timeout: cfg.ShortenerTimeout,
		Logger:  logger,
	})
	if err != nil {
		return eris.Wrap(err, "building shortener")
	}

	publisher, err := publish.NewService(publish.Options{
		Gate:      gate,
		Shortener: shortener,
		Analytics: recorder,
		Logger:    logger,
		SentryHub: sentryHub,
		BaseURL:   cfg.BaseURL,
		Domain:    cfg.Domain,
	})
	if err != nil {
		return eris.Wrap(err, "creating publish service")
	}

	transport, err := apphttp.NewServer(apphttp.Options{
		Publisher: publisher,
		Gate:      gate,
		Database:  dbConn,
		Logger:    logger,
		SentryHub: sentryHub,
		RateLimiter: apphttp.RateLimiterSettings{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
			ClientTTL:         cfg.RateLimit.ClientTTL,
		},
	})
	if err != nil {
		return eris.Wrap(err, "initialising http transport")
	}

	httpServer := &stdhttp.Server{
		Addr:    fmt.Sprintf("0.0.0.0:%d", cfg.ServerPort),
		Handler: transport.Handler(),
	}

	logger.WithFields(logrus.Fields{
		"addr":   httpServer.Addr,
		"domain": cfg.Domain,
	}).Info("starting http server")

	serverErrCh := make(chan error, 1)
	go func() {
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErrCh <- err
		} else {
			serverErrCh <- nil
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErrCh:
		if err != nil {
			return eris.Wrap(err, "http server error")
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "shutting down http server")
	}

	// Let in-flight analytics writes land before the store goes away.
	recorder.Wait()

	logger.Info("http server shut down cleanly")
	return nil
}
