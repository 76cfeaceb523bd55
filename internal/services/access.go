package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"expensetracker/internal/core"
	"expensetracker/internal/storage"
)

// requireUser fails fast when no authenticated user was threaded in.
func requireUser(userID uuid.UUID) error {
	if userID == uuid.Nil {
		return core.ErrUnauthenticated()
	}
	return nil
}

// FetchUserCategory loads a category and checks that userID owns it. It is
// the only way services read a category on behalf of a user.
func FetchUserCategory(ctx context.Context, q storage.CategoryStore, userID uuid.UUID, id int64) (core.Category, error) {
	if err := requireUser(userID); err != nil {
		return core.Category{}, err
	}

	c, err := q.GetCategory(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return core.Category{}, core.ErrCategoryNotFound()
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %d: %w", id, err)
	}
	if c.OwnerID != userID {
		return core.Category{}, core.ErrCategoryForbidden()
	}
	return c, nil
}

// FetchUserTransaction loads a transaction and checks that userID owns it.
func FetchUserTransaction(ctx context.Context, q storage.TransactionStore, userID uuid.UUID, id int64) (core.Transaction, error) {
	if err := requireUser(userID); err != nil {
		return core.Transaction{}, err
	}

	t, err := q.GetTransaction(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return core.Transaction{}, core.ErrTransactionNotFound()
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	if t.OwnerID != userID {
		return core.Transaction{}, core.ErrTransactionForbidden()
	}
	return t, nil
}
