package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"budgetwatch/internal/aggregate"
	"budgetwatch/internal/amqp"
	"budgetwatch/internal/config"
	"budgetwatch/internal/ingest"
	applog "budgetwatch/internal/log"
	"budgetwatch/internal/pipeline"
	"budgetwatch/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	logger.Info("Starting budgetwatch")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	if err := cfg.EnsureDirs(); err != nil {
		logger.Error("Failed to prepare data directories", applog.FieldError, err)
		os.Exit(1)
	}

	store, err := storage.New(cfg.DatabaseFile)
	if err != nil {
		logger.Error("Failed to initialize store", applog.FieldError, err, "path", cfg.DatabaseFile)
		os.Exit(1)
	}
	defer store.Close()

	// Report publishing is optional: without a broker the run still ingests
	// and aggregates, and the reporting service is simply not notified.
	var publisher pipeline.Publisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		publisher = amqpClient
		logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine := ingest.New(ingest.Config{
		RawDir:             cfg.RawDir(),
		ImportedDir:        cfg.ImportedDir(),
		FailedDir:          cfg.FailedDir(),
		TransactionPattern: cfg.TransactionPattern,
		BudgetPattern:      cfg.BudgetPattern,
	}, store, logger)

	// The snapshot extractor is an external adapter; when none is wired the
	// landing area is expected to be populated by the delivery process.
	p := pipeline.New(pipeline.Config{
		LookbackDays:   cfg.LookbackDays,
		ReportCategory: cfg.ReportCategory,
		RetryAttempts:  cfg.RetryAttempts,
		RetryDelay:     cfg.RetryDelay,
	}, nil, engine, aggregate.New(store, logger), store, publisher, logger)

	if err := p.RunWithRetry(ctx); err != nil {
		logger.Error("Run abandoned", applog.FieldError, err)
		os.Exit(1)
	}

	slog.Info("Run completed")
}
