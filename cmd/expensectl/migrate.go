package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"expensetracker/internal/storage"
)

func migrateCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
		Long:  `Apply, roll back or inspect the embedded schema migrations.`,
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (default: $SQLITE_DB_PATH)")

	resolve := func() string {
		if dbPath != "" {
			return dbPath
		}
		if env := os.Getenv("SQLITE_DB_PATH"); env != "" {
			return env
		}
		return "./data/expensetracker.db"
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		RunE: func(_ *cobra.Command, _ []string) error {
			path := resolve()
			if err := storage.RunMigrations(path); err != nil {
				return err
			}
			slog.Info("Migrations applied", "db_path", path)
			return nil
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back applied migrations",
		RunE: func(_ *cobra.Command, _ []string) error {
			path := resolve()
			if err := storage.RollbackMigrations(path, steps); err != nil {
				return err
			}
			slog.Info("Migrations rolled back", "db_path", path, "steps", steps)
			return nil
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to roll back")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the current schema version",
		RunE: func(c *cobra.Command, _ []string) error {
			status, err := storage.CurrentMigration(resolve())
			if err != nil {
				return err
			}
			out := c.OutOrStdout()
			switch {
			case status.Pristine:
				fmt.Fprintln(out, "no migrations applied")
			case status.Dirty:
				fmt.Fprintf(out, "version %d (dirty)\n", status.Version)
			default:
				fmt.Fprintf(out, "version %d\n", status.Version)
			}
			return nil
		},
	})

	return cmd
}
