package main

import (
	"context"
	"errors"
	"os"
	"time"

	"financepro/internal/amqp"
	"financepro/internal/cli"
	"financepro/internal/config"
	applog "financepro/internal/log"
	gsheet "financepro/internal/sheets/google"
	"financepro/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)
	logger.Info("Starting financepro-worker")

	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateWorker)
	// The mirror only reads records; it never scans receipts.
	cfg.FeatureOCR = false

	backend := cli.InitStore(context.Background(), logger, cfg)
	finance, err := cli.NewFinance(context.Background(), logger, cfg, backend.Store, nil)
	if err != nil {
		logger.Error("Failed to initialize finance service", applog.FieldError, err)
		os.Exit(1)
	}
	defer finance.Close()

	sheetsClient, err := gsheet.NewWithServiceAccount(context.Background(),
		cfg.GoogleSpreadsheetID, cfg.GoogleServiceAccountJSON, cfg.GoogleServiceAccountFile)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	syncWorker := worker.NewSyncWorker(finance, sheetsClient)

	ctx, done := cli.GracefulShutdown(logger, 15*time.Second, nil)

	err = amqpClient.ConsumeRecordChanges(ctx, syncWorker.HandleRecordChange)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", applog.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
