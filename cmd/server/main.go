// Package main initializes and starts the fit API server, setting up
// configuration, logging, the metrics database, credential stores,
// the tracker manager, services, handlers and optional TLS.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/fit/internal/config"
	"github.com/atinyakov/fit/internal/db"
	"github.com/atinyakov/fit/internal/logger"
	"github.com/atinyakov/fit/internal/repository"
	"github.com/atinyakov/fit/internal/server/handler/http"
	"github.com/atinyakov/fit/internal/service"
	"github.com/atinyakov/fit/internal/storage"
	"github.com/atinyakov/fit/internal/tracker"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	// Parse command-line, config file and environment configuration.
	options := config.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(options.LogLevel); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Open the metrics database and start the readings retention cleaner.
	conn, driver, err := db.Open(options.DatabaseDSN)
	if err != nil {
		zapLogger.Fatal("cannot init database", zap.Error(err))
	}
	defer conn.Close()
	db.StartReadingsCleaner(ctx, conn, driver,
		time.Hour,           // interval
		options.Retention(), // retention
		zapLogger,
	)

	// Credential and active tracker stores live in the data directory.
	creds := storage.NewFileCredentialStore(options.DataDir)
	cfgStore := storage.NewFileConfigStore(options.DataDir)

	manager := tracker.NewManager(tracker.DefaultRegistry(), creds, cfgStore, zapLogger)
	readings := repository.NewSQLReadingRepository(conn, driver)
	measurements := repository.NewSQLMeasurementRepository(conn, driver)
	trackerService := service.NewTrackerService(manager, readings, zapLogger)
	measurementService := service.NewMeasurementService(measurements, manager, zapLogger)

	router := http.NewRouter(
		&http.TrackerHandler{TrackerService: trackerService},
		&http.MetricsHandler{MetricsService: trackerService},
		&http.MeasurementHandler{MeasurementService: measurementService},
		zapLogger,
	)

	server := &nethttp.Server{
		Addr:              options.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			zapLogger.Error("shutdown failed", zap.Error(err))
		}
	}()

	zapLogger.Info("starting server",
		zap.String("addr", options.Port),
		zap.String("driver", string(driver)),
		zap.String("data_dir", options.DataDir),
		zap.Bool("tls", options.TLSEnabled()),
	)
	if options.TLSEnabled() {
		err = server.ListenAndServeTLS(options.TLSCert, options.TLSKey)
	} else {
		err = server.ListenAndServe()
	}
	if err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		zapLogger.Fatal("server stopped", zap.Error(err))
	}
	zapLogger.Info("server stopped")
}
