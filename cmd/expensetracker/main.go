package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"expensetracker/internal/auth"
	"expensetracker/internal/cli"
	apphttp "expensetracker/internal/http"
	applog "expensetracker/internal/log"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	b := cli.OpenBackend(ctx, logger, cfg)
	defer func() {
		if err := b.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", applog.FieldError, err)
		}
	}()

	svc := cli.BuildServices(cfg, b)
	if err := svc.Seed(ctx, cfg); err != nil {
		logger.Error("Seeding failed", applog.FieldError, err)
		os.Exit(1)
	}

	srv := apphttp.NewServer(cfg.Addr(), apphttp.Deps{
		Users:              svc.Users,
		Categories:         svc.Categories,
		Transactions:       svc.Transactions,
		Balance:            svc.Balance,
		Tokens:             auth.NewCachingVerifier(svc.Tokens, auth.DefaultVerifiedTokens),
		Logger:             logger.WithComponent(applog.ComponentHTTP),
		Ready:              b.Ready,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting expense tracker API",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"events_enabled", b.Events != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
