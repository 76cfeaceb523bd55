package main

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"expensetracker/internal/cli"
	"expensetracker/internal/config"
)

// withServices opens the configured backend for the duration of fn.
func withServices(cmd *cobra.Command, fn func(*config.Config, *cli.Services) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	b, err := cli.Open(cmd.Context(), slog.Default(), cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := b.Cleanup(); err != nil {
			slog.Error("Backend cleanup failed", "error", err)
		}
	}()

	return fn(cfg, cli.BuildServices(cfg, b))
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Insert the roles and the admin account",
		Long:  `Insert the ADMIN and USER roles and the configured admin user when they are missing.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withServices(cmd, func(cfg *config.Config, svc *cli.Services) error {
				if err := svc.Seed(cmd.Context(), cfg); err != nil {
					return err
				}
				slog.Info("Seeding complete", "admin", cfg.AdminUsername)
				return nil
			})
		},
	}
}

func rolloverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rollover",
		Short: "Run one recurring transaction rollover now",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withServices(cmd, func(_ *config.Config, svc *cli.Services) error {
				count, err := svc.Recurring.Rollover(cmd.Context(), time.Now())
				if err != nil {
					return err
				}
				slog.Info("Rollover complete", "transactions_created", count)
				return nil
			})
		},
	}
}
