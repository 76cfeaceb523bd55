package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
	"expensetracker/internal/storage"
)

// TransactionInput is the payload for creating a transaction. Amount is nil
// when the caller did not supply one.
type TransactionInput struct {
	Type        string
	Title       string
	Description string
	Amount      *decimal.Decimal
}

// TransactionEdit is a partial update: nil fields are left untouched.
type TransactionEdit struct {
	Title       *string
	Description *string
	Amount      *decimal.Decimal
	IsRecurrent *bool
}

type TransactionService struct {
	repo   storage.Repository
	events EventPublisher
	now    func() time.Time
}

func NewTransactionService(repo storage.Repository, events EventPublisher) *TransactionService {
	return &TransactionService{repo: repo, events: events, now: time.Now}
}

// Create stores a transaction owned by userID with its amount normalized to
// the sign of its type.
func (s *TransactionService) Create(ctx context.Context, userID uuid.UUID, in TransactionInput) (core.Transaction, error) {
	if err := requireUser(userID); err != nil {
		return core.Transaction{}, err
	}

	var v core.Validation
	v.Require(strings.TrimSpace(in.Type) != "", core.MsgTransactionTypeRequired)
	v.Require(strings.TrimSpace(in.Title) != "", core.MsgTitleRequired)
	v.Require(in.Amount != nil, core.MsgAmountRequired)
	if err := v.Err(); err != nil {
		return core.Transaction{}, err
	}
	typ, ok := core.ParseTransactionType(in.Type)
	if !ok {
		return core.Transaction{}, core.ErrInvalidTransactionType()
	}

	t := core.NewTransaction(userID, typ, in.Title, in.Description, *in.Amount, s.now())
	if err := s.repo.CreateTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction created",
		"transaction_id", t.ID,
		"user_id", userID,
		"type", t.Type,
		"amount", t.Amount.String())

	publishEvent(ctx, s.events, amqp.EventTransactionCreated, *t)
	return *t, nil
}

func (s *TransactionService) Get(ctx context.Context, userID uuid.UUID, id int64) (core.Transaction, error) {
	return FetchUserTransaction(ctx, s.repo, userID, id)
}

// List returns the user's transactions, optionally restricted to one type.
// The filter is case-insensitive and blank means every type.
func (s *TransactionService) List(ctx context.Context, userID uuid.UUID, typeFilter string) ([]core.Transaction, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	var (
		ts  []core.Transaction
		err error
	)
	if strings.TrimSpace(typeFilter) == "" {
		ts, err = s.repo.ListTransactionsByOwner(ctx, userID)
	} else {
		typ, ok := core.ParseTransactionType(typeFilter)
		if !ok {
			return nil, core.ErrInvalidTransactionType()
		}
		ts, err = s.repo.ListTransactionsByOwnerAndType(ctx, userID, typ)
	}
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	if ts == nil {
		ts = []core.Transaction{}
	}
	return ts, nil
}

// Edit applies the supplied fields. A new amount is normalized to the
// transaction's type and the owning category's total follows the change.
func (s *TransactionService) Edit(ctx context.Context, userID uuid.UUID, id int64, in TransactionEdit) (core.Transaction, error) {
	if in.Title != nil {
		var v core.Validation
		v.Require(strings.TrimSpace(*in.Title) != "", core.MsgTitleRequired)
		if err := v.Err(); err != nil {
			return core.Transaction{}, err
		}
	}

	var out core.Transaction
	err := s.repo.WithTx(ctx, func(q storage.Querier) error {
		t, err := FetchUserTransaction(ctx, q, userID, id)
		if err != nil {
			return err
		}

		if in.Title != nil {
			t.Title = strings.TrimSpace(*in.Title)
		}
		if in.Description != nil {
			t.Description = *in.Description
		}
		if in.IsRecurrent != nil {
			t.IsRecurrent = *in.IsRecurrent
		}
		if in.Amount != nil {
			amount := core.SignedAmount(t.Type, *in.Amount)
			delta := amount.Sub(t.Amount)
			t.Amount = amount
			if t.CategoryID != nil && !delta.IsZero() {
				if err := adjustCategoryTotal(ctx, q, *t.CategoryID, delta); err != nil {
					return err
				}
			}
		}

		if err := q.UpdateTransaction(ctx, t); err != nil {
			return fmt.Errorf("update transaction: %w", err)
		}
		out = t
		return nil
	})
	if err != nil {
		return core.Transaction{}, err
	}

	publishEvent(ctx, s.events, amqp.EventTransactionUpdated, out)
	return out, nil
}

// Remove deletes the transaction and takes it out of its category's total.
func (s *TransactionService) Remove(ctx context.Context, userID uuid.UUID, id int64) error {
	var removed core.Transaction
	err := s.repo.WithTx(ctx, func(q storage.Querier) error {
		t, err := FetchUserTransaction(ctx, q, userID, id)
		if err != nil {
			return err
		}

		if t.CategoryID != nil {
			if err := adjustCategoryTotal(ctx, q, *t.CategoryID, t.Amount.Neg()); err != nil {
				return err
			}
		}

		if err := q.DeleteTransaction(ctx, t.ID); err != nil {
			return fmt.Errorf("delete transaction: %w", err)
		}
		removed = t
		return nil
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Transaction removed",
		"transaction_id", id,
		"user_id", userID)

	publishEvent(ctx, s.events, amqp.EventTransactionDeleted, removed)
	return nil
}

func adjustCategoryTotal(ctx context.Context, q storage.CategoryStore, categoryID int64, delta decimal.Decimal) error {
	c, err := q.GetCategory(ctx, categoryID)
	if err != nil {
		return fmt.Errorf("get category %d: %w", categoryID, err)
	}
	c.TotalAmount = c.TotalAmount.Add(delta)
	if err := q.UpdateCategory(ctx, c); err != nil {
		return fmt.Errorf("update category %d: %w", categoryID, err)
	}
	return nil
}
