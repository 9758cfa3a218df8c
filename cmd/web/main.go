// Package main provides the entry point for the connector builder server.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/autobridge/autobridge/internal/api"
	"github.com/autobridge/autobridge/internal/auth"
	"github.com/autobridge/autobridge/internal/catalog"
	"github.com/autobridge/autobridge/internal/events"
	"github.com/autobridge/autobridge/internal/export"
	"github.com/autobridge/autobridge/internal/shutdown"
	"github.com/autobridge/autobridge/internal/store"
	"github.com/autobridge/autobridge/internal/store/memory"
	pgstore "github.com/autobridge/autobridge/internal/store/postgres"
	"github.com/autobridge/autobridge/internal/workflow"
	"github.com/autobridge/autobridge/pkg/config"
	"github.com/autobridge/autobridge/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.New(slog.LevelInfo, true).Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.JSON)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := openStore(ctx, cfg, log.Logger)
	if err != nil {
		log.Error("failed to open store", "error", err)
		os.Exit(1)
	}

	cat, err := catalog.Load()
	if err != nil {
		log.Error("failed to load catalog", "error", err)
		os.Exit(1)
	}

	manager := workflow.NewManager(workflow.ManagerConfig{
		Store:   st,
		Broker:  events.NewBroker(log.WithComponent("events").Logger),
		Catalog: cat,
		Generator: &workflow.SimulatedGenerator{
			Delay:  cfg.Workflow.GenerateDelay,
			Config: cat.Connector.Config,
		},
		Validator: &workflow.SimulatedValidator{Delay: cfg.Workflow.ValidateDelay},
		Logger:    log.WithComponent("workflow").Logger,
	})

	tokens := auth.NewService(&auth.Config{
		Secret:      []byte(cfg.SessionSecret),
		TokenExpiry: cfg.SessionExpiry,
	}, log.Logger)

	sealer, err := export.NewSealer(cfg.Export.AgeRecipient, log.WithComponent("export").Logger)
	if err != nil {
		log.Error("failed to initialize export", "error", err)
		os.Exit(1)
	}
	if sealer.Sealing() {
		log.Info("configuration downloads are sealed", "recipient", sealer.Recipient())
	}

	server := api.NewServer(cfg, api.Deps{
		Store:   st,
		Manager: manager,
		Tokens:  tokens,
		Sealer:  sealer,
	}, log.Logger)

	// Registered in dependency order; shutdown runs in reverse.
	coordinator := shutdown.NewCoordinator(
		shutdown.WithTimeout(cfg.ShutdownTimeout),
		shutdown.WithLogger(log.Logger),
	)
	coordinator.Register(shutdown.NewCloserComponent("store", st))
	coordinator.Register(shutdown.NewWorkerComponent("workflow", manager))
	coordinator.Register(shutdown.NewHTTPServerComponent("http", server.HTTPServer()))

	go func() {
		coordinator.WaitForSignal()
		cancel()
	}()

	if err := server.Start(ctx); err != nil {
		log.Error("server error", "error", err)
		cancel()
		coordinator.Shutdown()
		coordinator.Wait()
		os.Exit(1)
	}

	coordinator.Wait()
	log.Info("server stopped")
	os.Exit(coordinator.ExitCode())
}

// openStore uses PostgreSQL when a DSN is configured and memory otherwise.
func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (store.Store, error) {
	if cfg.DatabaseDSN == "" {
		log.Warn("DATABASE_URL not set, sessions are kept in memory")
		return memory.New(), nil
	}
	pg, err := pgstore.NewPostgresStore(ctx, pgstore.DefaultConfig(cfg.DatabaseDSN), log)
	if err != nil {
		return nil, err
	}
	return pg, nil
}
