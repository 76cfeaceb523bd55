package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"expensetracker/internal/core"
	"expensetracker/internal/storage"
)

// AddTransaction attaches a transaction to a category of the same type.
// Adding an attached transaction is a no-op. A transaction attached to
// another category is moved and the previous total is decremented.
func (s *CategoryService) AddTransaction(ctx context.Context, userID uuid.UUID, categoryID, transactionID int64) (CategoryDetails, error) {
	var out CategoryDetails
	err := s.repo.WithTx(ctx, func(q storage.Querier) error {
		c, err := FetchUserCategory(ctx, q, userID, categoryID)
		if err != nil {
			return err
		}
		t, err := FetchUserTransaction(ctx, q, userID, transactionID)
		if err != nil {
			return err
		}

		if !c.MatchesType(&t) {
			return core.ErrTypeMismatch()
		}

		if !c.Contains(&t) {
			if err := s.detachFromPrevious(ctx, q, &t); err != nil {
				return err
			}
			if _, err := c.AddTransaction(&t); err != nil {
				return err
			}
			if err := q.UpdateTransaction(ctx, t); err != nil {
				return fmt.Errorf("update transaction: %w", err)
			}
			if err := q.UpdateCategory(ctx, c); err != nil {
				return fmt.Errorf("update category: %w", err)
			}
		}

		out, err = withTransactions(ctx, q, c)
		return err
	})
	if err != nil {
		return CategoryDetails{}, err
	}
	return out, nil
}

// detachFromPrevious takes t out of the category it currently belongs to.
func (s *CategoryService) detachFromPrevious(ctx context.Context, q storage.Querier, t *core.Transaction) error {
	if t.CategoryID == nil {
		return nil
	}

	prev, err := q.GetCategory(ctx, *t.CategoryID)
	if errors.Is(err, storage.ErrNotFound) {
		t.CategoryID = nil
		return nil
	}
	if err != nil {
		return fmt.Errorf("get previous category: %w", err)
	}

	prev.RemoveTransaction(t)
	if err := q.UpdateCategory(ctx, prev); err != nil {
		return fmt.Errorf("update previous category: %w", err)
	}

	slog.InfoContext(ctx, "Transaction moved between categories",
		"transaction_id", t.ID,
		"from_category_id", prev.ID)
	return nil
}

// RemoveTransaction detaches a transaction from a category. Removing a
// transaction that is not attached is a no-op.
func (s *CategoryService) RemoveTransaction(ctx context.Context, userID uuid.UUID, categoryID, transactionID int64) (CategoryDetails, error) {
	var out CategoryDetails
	err := s.repo.WithTx(ctx, func(q storage.Querier) error {
		c, err := FetchUserCategory(ctx, q, userID, categoryID)
		if err != nil {
			return err
		}
		t, err := FetchUserTransaction(ctx, q, userID, transactionID)
		if err != nil {
			return err
		}

		if c.RemoveTransaction(&t) {
			if err := q.UpdateTransaction(ctx, t); err != nil {
				return fmt.Errorf("update transaction: %w", err)
			}
			if err := q.UpdateCategory(ctx, c); err != nil {
				return fmt.Errorf("update category: %w", err)
			}
		}

		out, err = withTransactions(ctx, q, c)
		return err
	})
	if err != nil {
		return CategoryDetails{}, err
	}
	return out, nil
}
