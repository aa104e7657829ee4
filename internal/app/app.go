// Package app wires the telemetry store, the I1 ingest server, the HTTP
// read facade and the synthetic generator into one lifecycle.
package app

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/linescope/linescope/internal/controllers/restserver"
	"github.com/linescope/linescope/internal/generator"
	"github.com/linescope/linescope/internal/log"
	"github.com/linescope/linescope/internal/server"
	"github.com/linescope/linescope/internal/store"
	"github.com/linescope/linescope/pkg/config"
	"go.uber.org/zap"
)

// App represents the main application.
type App struct {
	configProvider config.ConfigProvider
	logger         *zap.SugaredLogger

	store     *store.TelemetryStore
	i1Manager *server.Manager
}

// New creates a new application instance.
func New(configProvider config.ConfigProvider, logger *zap.SugaredLogger) *App {
	return &App{
		configProvider: configProvider,
		logger:         logger,
	}
}

// Run starts the application and blocks until shutdown.
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cfg, err := a.configProvider.LoadConfig()
	if err != nil {
		return err
	}

	a.store = store.New(store.Options{
		MaxRecords:     cfg.Store.MaxRecords,
		AlertThreshold: cfg.Store.LineTempThreshold,
		AlertTimeout:   cfg.Store.LineTempTimeout,
	}, a.logger)

	if cfg.I1Enabled() {
		a.i1Manager = server.NewManager(a.store, server.Options{
			ReadTimeout:  time.Duration(cfg.I1.ReadTimeout) * time.Second,
			MaxFrameSize: cfg.I1.MaxFrame,
		}, a.logger)
		if err := a.i1Manager.Start(cfg.I1.ListenHost, cfg.I1.ListenPort); err != nil {
			return err
		}
	} else {
		a.logger.Info("I1 server disabled; store accepts writes from other sources only")
	}

	if cfg.HTTPEnabled() {
		restController := restserver.NewController(ctx, &wg, cfg.HTTP, a.store, a.logger)
		if err := restController.StartController(); err != nil {
			if a.i1Manager != nil {
				a.i1Manager.Stop()
			}
			return err
		}
	}

	if cfg.Generator.Enabled {
		gen := generator.New(a.store, time.Duration(cfg.Generator.IntervalMinutes)*time.Minute, a.logger)
		gen.Start(ctx, &wg)
	}

	log.Info("Application started successfully")

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal
	select {
	case <-sigs:
		log.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		log.Info("context cancelled, shutting down...")
	}

	if a.i1Manager != nil {
		a.i1Manager.Stop()
	}

	// Cancel context to signal all goroutines to stop
	cancel()

	// Wait for all workers to terminate
	log.Info("waiting for all workers to terminate...")
	wg.Wait()
	log.Info("shutdown complete")

	return nil
}
