package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"myfinances/internal/amqp"
	"myfinances/internal/backend"
	"myfinances/internal/cli"
	"myfinances/internal/config"
	"myfinances/internal/log"
	"myfinances/internal/services"
	"myfinances/internal/sheets/google"
	"myfinances/internal/storage"
	"myfinances/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg.LogLevel, log.ComponentWorker)

	logger.Info("Starting finances-worker")

	if cfg.DataBackend != config.BackendSQLite {
		logger.Warn("DATA_BACKEND is not sqlite, the worker will only drain rows already in the database",
			log.FieldBackend, cfg.DataBackend)
	}
	if cfg.GoogleSpreadsheetID == "" || !cfg.HasSheetsCredentials() {
		logger.Error("The worker needs GOOGLE_SPREADSHEET_ID and Google credentials")
		os.Exit(1)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}

	// Initialize SQLite repository to read pending rows
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath, backendCfg.Headers())
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, stop := cli.GracefulShutdown(logger, nil)
	defer stop()

	sheetsClient, err := google.NewFromConfig(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
		os.Exit(1)
	}

	syncWorker := worker.NewSyncWorker(repo, sheetsClient, cfg.SyncBatchSize)

	// Catch up on rows saved while the worker was down.
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Failed startup sync check", log.FieldError, err)
	}

	processor := services.NewSyncProcessor(syncWorker, services.SyncProcessorConfig{
		PollInterval: cfg.SyncInterval,
		BatchSize:    cfg.SyncBatchSize,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return processor.Run(gctx)
	})

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer client.Close()

		g.Go(func() error {
			return client.ConsumeWithRetry(gctx, syncWorker.HandleSyncMessage)
		})
	} else {
		logger.Info("AMQP_URL not set, relying on the periodic sweep only",
			"interval", cfg.SyncInterval)
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
