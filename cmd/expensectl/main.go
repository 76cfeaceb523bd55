// Command expensectl runs operator tasks against the expense tracker database.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"expensetracker/internal/cli"
	"expensetracker/internal/config"
	applog "expensetracker/internal/log"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "expensectl",
		Short:         "Expense tracker operator CLI",
		Long:          `Apply migrations, seed accounts, trigger recurring rollovers and inspect users.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			level, _ := cmd.Flags().GetString("log-level")
			applog.Setup(applog.ComponentApp, level)
		},
	}

	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(migrateCmd())
	root.AddCommand(seedCmd())
	root.AddCommand(rolloverCmd())
	root.AddCommand(usersCmd())
	return root
}

func main() {
	cli.LoadEnvFile()

	ctx, stop := cli.SignalContext(applog.New(applog.DefaultConfig()))
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig loads and validates the environment. The operator commands all
// act on a persistent database, so the memory backend is rejected.
func loadConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.DataBackend != config.BackendSQLite {
		return nil, fmt.Errorf("expensectl requires DATA_BACKEND=%s, got %q", config.BackendSQLite, cfg.DataBackend)
	}
	return cfg, nil
}
