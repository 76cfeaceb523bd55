package main

import (
	"context"
	"os"
	"time"

	"github.com/robfig/cron/v3"

	"expensetracker/internal/cli"
	applog "expensetracker/internal/log"
	"expensetracker/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentRecurrence)

	logger.Info("Starting recurring-worker")
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	b := cli.OpenBackend(ctx, logger, cfg)
	defer func() {
		if err := b.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", applog.FieldError, err)
		}
	}()

	processor := cli.BuildServices(cfg, b).Recurring

	if cfg.RecurrenceRunOnStart {
		logger.Info("Running initial rollover")
		runRollover(ctx, logger, processor)
	}

	scheduler := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(newCronLogger(logger))))
	schedule, err := cron.ParseStandard(cfg.RecurrenceSchedule)
	if err != nil {
		logger.Error("Invalid recurrence schedule", applog.FieldError, err, "schedule", cfg.RecurrenceSchedule)
		os.Exit(1)
	}
	scheduler.Schedule(schedule, cron.FuncJob(func() {
		runRollover(ctx, logger, processor)
	}))
	scheduler.Start()

	logger.Info("Recurring transaction processor scheduled",
		"schedule", cfg.RecurrenceSchedule,
		"next_run", schedule.Next(time.Now()).Format(time.RFC3339),
		"backend", cfg.DataBackend)

	<-ctx.Done()

	logger.Info("Shutting down recurring-worker...")
	stopCtx := scheduler.Stop()
	select {
	case <-stopCtx.Done():
		logger.Info("Recurring-worker shutdown complete")
	case <-time.After(30 * time.Second):
		logger.Warn("Shutdown timeout reached, a rollover is still running")
	}
}

func runRollover(ctx context.Context, logger *applog.Logger, processor *services.RecurringProcessor) {
	start := time.Now()
	count, err := processor.Rollover(ctx, start)
	if err != nil {
		logger.Error("Rollover failed", applog.FieldError, err, applog.FieldOperation, applog.OpRollover)
		return
	}
	logger.Info("Rollover complete",
		"transactions_created", count,
		applog.FieldDuration, time.Since(start).Milliseconds())
}
