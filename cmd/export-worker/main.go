package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"expensetracker/internal/amqp"
	"expensetracker/internal/cli"
	"expensetracker/internal/config"
	applog "expensetracker/internal/log"
	"expensetracker/internal/sheets"
	gsheet "expensetracker/internal/sheets/google"
	"expensetracker/internal/sheets/memory"
	"expensetracker/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)

	logger.Info("Starting export-worker")
	cfg := cli.LoadAndValidateConfig(logger)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required by the export worker")
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	rows, err := openSheet(ctx, logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", applog.FieldError, err)
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	exportWorker := worker.NewExportWorker(amqpClient, rows)
	if err := exportWorker.Start(ctx); err != nil {
		logger.Error("Failed to start export worker", applog.FieldError, err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-exportWorker.Done()
		if err := exportWorker.Err(); err != nil {
			return err
		}
		if ctx.Err() == nil {
			return errors.New("export worker stopped unexpectedly")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return exportWorker.Stop(stopCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Export worker failed", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Export-worker shutdown complete")
}

// openSheet returns the Google Sheets writer, or an in-process store when no
// spreadsheet is configured.
func openSheet(ctx context.Context, logger *applog.Logger, cfg *config.Config) (sheets.RowWriter, error) {
	if cfg.GoogleSpreadsheetID == "" {
		logger.Warn("Google Sheets disabled, no GOOGLE_SPREADSHEET_ID provided; rows are kept in memory")
		return memory.New(), nil
	}

	client, err := gsheet.New(ctx, gsheet.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, err
	}
	if err := client.EnsureHeader(ctx); err != nil {
		return nil, err
	}

	logger.Info("Google Sheets client initialized",
		applog.FieldSheetsRef, cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleSheetName)
	return client, nil
}
