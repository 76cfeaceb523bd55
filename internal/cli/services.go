package cli

import (
	"context"
	"log/slog"
	"os"

	"golang.org/x/crypto/bcrypt"

	"expensetracker/internal/auth"
	"expensetracker/internal/backend"
	"expensetracker/internal/config"
	applog "expensetracker/internal/log"
	"expensetracker/internal/services"
)

// Services is the application layer shared by the binaries.
type Services struct {
	Users        *services.UserService
	Categories   *services.CategoryService
	Transactions *services.TransactionService
	Balance      *services.BalanceService
	Recurring    *services.RecurringProcessor
	Tokens       *auth.TokenIssuer
}

// Open creates the configured storage and optional event publisher.
func Open(ctx context.Context, logger *slog.Logger, cfg *config.Config) (*backend.Result, error) {
	settings, err := backend.FromConfig(cfg)
	if err != nil {
		return nil, err
	}
	return backend.NewFactory(logger).Open(ctx, settings)
}

// OpenBackend is Open for the long-running binaries. Exits the process on
// failure.
func OpenBackend(ctx context.Context, logger *applog.Logger, cfg *config.Config) *backend.Result {
	res, err := Open(ctx, logger.Logger.With(applog.FieldComponent, applog.ComponentBackend), cfg)
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	return res
}

// BuildServices wires the services over an opened backend.
func BuildServices(cfg *config.Config, b *backend.Result) *Services {
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.TokenTTL)
	return &Services{
		Users:        services.NewUserService(b.Repository, auth.NewPasswordHasher(bcrypt.DefaultCost), tokens),
		Categories:   services.NewCategoryService(b.Repository, b.Events, services.DeletePolicy(cfg.CategoryDeletePolicy)),
		Transactions: services.NewTransactionService(b.Repository, b.Events),
		Balance:      services.NewBalanceService(b.Repository, nil),
		Recurring:    services.NewRecurringProcessor(b.Repository, b.Events),
		Tokens:       tokens,
	}
}

// Seed inserts the roles and the configured admin account.
func (s *Services) Seed(ctx context.Context, cfg *config.Config) error {
	if err := s.Users.SeedRoles(ctx); err != nil {
		return err
	}
	_, err := s.Users.SeedAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword)
	return err
}
