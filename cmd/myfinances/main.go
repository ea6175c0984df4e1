package main

import (
	"context"
	"errors"
	"os"
	"sync"

	"myfinances/internal/backend"
	"myfinances/internal/cli"
	"myfinances/internal/core"
	"myfinances/internal/log"
	"myfinances/internal/menu"
	"myfinances/internal/report"
	"myfinances/internal/services"
	"myfinances/internal/sheets"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg.LogLevel, log.ComponentApp)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}

	res, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	closeBackend := sync.OnceFunc(func() {
		if err := res.Close(); err != nil {
			logger.Error("Failed to close backend", log.FieldError, err)
		}
	})
	defer closeBackend()

	// The menu blocks on stdin, so a signal closes the backend and leaves.
	ctx, stop := cli.GracefulShutdown(logger, func() {
		closeBackend()
		os.Exit(0)
	})
	defer stop()

	incomeSchema := sheets.IncomeSchema()
	expenseSchema := backendCfg.ExpenseSchema
	validator := core.NewRecordValidator(core.DefaultCategories())

	records := services.NewRecordService(res.Store, validator, incomeSchema, expenseSchema, res.Publisher, logger)
	engine := report.NewEngine(validator.Categories(), expenseSchema, logger)
	composer := report.NewComposer(res.Store, engine, incomeSchema, logger)

	logger.Info("Starting myfinances",
		log.FieldBackend, cfg.DataBackend,
		"expense_layout", cfg.ExpenseLayout)

	m := menu.New(menu.Options{
		In:            os.Stdin,
		Out:           os.Stdout,
		Records:       records,
		Reports:       composer,
		Rows:          res.Store,
		Validator:     validator,
		ExpenseSchema: expenseSchema,
		Logger:        logger,
	})
	if err := m.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Menu stopped", log.FieldError, err)
	}
}
