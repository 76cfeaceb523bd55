package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
	"expensetracker/internal/storage"
)

// DeletePolicy decides what happens to the transactions of a removed category.
type DeletePolicy string

const (
	// DeleteDetach keeps the transactions and clears their category.
	DeleteDetach DeletePolicy = "detach"
	// DeleteCascade deletes the transactions with the category.
	DeleteCascade DeletePolicy = "cascade"
)

func (p DeletePolicy) IsValid() bool {
	return p == DeleteDetach || p == DeleteCascade
}

// CategoryInput is the payload for creating a category. Type is parsed here
// so that the service rejects malformed input regardless of the caller.
type CategoryInput struct {
	Name string
	Type string
}

// CategoryDetails is a category together with the transactions currently
// attached to it.
type CategoryDetails struct {
	core.Category
	Transactions []core.Transaction
}

type CategoryService struct {
	repo   storage.Repository
	events EventPublisher
	policy DeletePolicy
}

func NewCategoryService(repo storage.Repository, events EventPublisher, policy DeletePolicy) *CategoryService {
	if !policy.IsValid() {
		policy = DeleteDetach
	}
	return &CategoryService{repo: repo, events: events, policy: policy}
}

// Create stores a new empty category owned by userID.
func (s *CategoryService) Create(ctx context.Context, userID uuid.UUID, in CategoryInput) (CategoryDetails, error) {
	if err := requireUser(userID); err != nil {
		return CategoryDetails{}, err
	}

	var v core.Validation
	v.Require(strings.TrimSpace(in.Name) != "", core.MsgCategoryNameRequired)
	v.Require(strings.TrimSpace(in.Type) != "", core.MsgTransactionTypeRequired)
	if err := v.Err(); err != nil {
		return CategoryDetails{}, err
	}
	typ, ok := core.ParseTransactionType(in.Type)
	if !ok {
		return CategoryDetails{}, core.ErrInvalidTransactionType()
	}

	c := core.Category{
		Name:        strings.TrimSpace(in.Name),
		Type:        typ,
		TotalAmount: decimal.Zero,
		OwnerID:     userID,
	}
	if err := s.repo.CreateCategory(ctx, &c); err != nil {
		return CategoryDetails{}, fmt.Errorf("create category: %w", err)
	}

	slog.InfoContext(ctx, "Category created",
		"category_id", c.ID,
		"user_id", userID,
		"type", c.Type)

	return CategoryDetails{Category: c, Transactions: []core.Transaction{}}, nil
}

// Get returns the category with its transactions.
func (s *CategoryService) Get(ctx context.Context, userID uuid.UUID, id int64) (CategoryDetails, error) {
	c, err := FetchUserCategory(ctx, s.repo, userID, id)
	if err != nil {
		return CategoryDetails{}, err
	}
	return withTransactions(ctx, s.repo, c)
}

// List returns every category owned by userID.
func (s *CategoryService) List(ctx context.Context, userID uuid.UUID) ([]CategoryDetails, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	categories, err := s.repo.ListCategoriesByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	out := make([]CategoryDetails, 0, len(categories))
	for _, c := range categories {
		d, err := withTransactions(ctx, s.repo, c)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// Edit renames the category. The type cannot change after creation.
func (s *CategoryService) Edit(ctx context.Context, userID uuid.UUID, id int64, name string) (CategoryDetails, error) {
	var v core.Validation
	v.Require(strings.TrimSpace(name) != "", core.MsgCategoryNameRequired)
	if err := v.Err(); err != nil {
		return CategoryDetails{}, err
	}

	var out CategoryDetails
	err := s.repo.WithTx(ctx, func(q storage.Querier) error {
		c, err := FetchUserCategory(ctx, q, userID, id)
		if err != nil {
			return err
		}

		c.Name = strings.TrimSpace(name)
		if err := q.UpdateCategory(ctx, c); err != nil {
			return fmt.Errorf("update category: %w", err)
		}

		out, err = withTransactions(ctx, q, c)
		return err
	})
	if err != nil {
		return CategoryDetails{}, err
	}
	return out, nil
}

// Remove deletes the category and applies the configured policy to its
// transactions.
func (s *CategoryService) Remove(ctx context.Context, userID uuid.UUID, id int64) error {
	var removed []core.Transaction
	err := s.repo.WithTx(ctx, func(q storage.Querier) error {
		c, err := FetchUserCategory(ctx, q, userID, id)
		if err != nil {
			return err
		}

		switch s.policy {
		case DeleteCascade:
			removed, err = q.ListTransactionsByCategory(ctx, c.ID)
			if err != nil {
				return fmt.Errorf("list category transactions: %w", err)
			}
			if err := q.DeleteCategoryTransactions(ctx, c.ID); err != nil {
				return fmt.Errorf("delete category transactions: %w", err)
			}
		default:
			if err := q.DetachCategoryTransactions(ctx, c.ID); err != nil {
				return fmt.Errorf("detach category transactions: %w", err)
			}
		}

		if err := q.DeleteCategory(ctx, c.ID); err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Category removed",
		"category_id", id,
		"user_id", userID,
		"policy", s.policy,
		"deleted_transactions", len(removed))

	for _, t := range removed {
		publishEvent(ctx, s.events, amqp.EventTransactionDeleted, t)
	}
	return nil
}

func withTransactions(ctx context.Context, q storage.TransactionStore, c core.Category) (CategoryDetails, error) {
	ts, err := q.ListTransactionsByCategory(ctx, c.ID)
	if err != nil {
		return CategoryDetails{}, fmt.Errorf("list category transactions: %w", err)
	}
	if ts == nil {
		ts = []core.Transaction{}
	}
	return CategoryDetails{Category: c, Transactions: ts}, nil
}
