package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"expensetracker/internal/core"
	"expensetracker/internal/storage"
)

// SeedRoles inserts the known roles that are missing. Running it again is a
// no-op.
func (s *UserService) SeedRoles(ctx context.Context) error {
	for _, role := range core.RoleNames() {
		created, err := s.repo.EnsureRole(ctx, role)
		if err != nil {
			return fmt.Errorf("seed role %s: %w", role, err)
		}
		if created {
			slog.InfoContext(ctx, "Seeded role", "role", role)
		}
	}
	return nil
}

// SeedAdmin creates the administrator account with every role when no user
// named username exists. It reports whether the account was created.
func (s *UserService) SeedAdmin(ctx context.Context, username, password string) (bool, error) {
	_, err := s.repo.GetUserByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return false, fmt.Errorf("lookup admin: %w", err)
	}

	u, err := s.create(ctx, username, password, core.RoleNames()...)
	if err != nil {
		return false, fmt.Errorf("seed admin: %w", err)
	}

	slog.InfoContext(ctx, "Seeded admin user", "user_id", u.ID, "username", u.Username)
	return true, nil
}
