package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"expensetracker/internal/core"
)

var (
	// ErrNotFound is returned by lookups when no row matches.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a write violates a uniqueness or
	// reference constraint.
	ErrConflict = errors.New("constraint violation")
)

// Ports implemented by the sqlite and memory adapters.
type (
	UserStore interface {
		CreateUser(ctx context.Context, u core.User) error
		GetUserByID(ctx context.Context, id uuid.UUID) (core.User, error)
		GetUserByUsername(ctx context.Context, username string) (core.User, error)
		ListUsers(ctx context.Context) ([]core.User, error)
		// EnsureRole inserts the role if absent and reports whether it did.
		EnsureRole(ctx context.Context, role core.RoleName) (bool, error)
		RoleExists(ctx context.Context, role core.RoleName) (bool, error)
	}

	CategoryStore interface {
		// CreateCategory persists c and assigns its ID.
		CreateCategory(ctx context.Context, c *core.Category) error
		GetCategory(ctx context.Context, id int64) (core.Category, error)
		ListCategoriesByOwner(ctx context.Context, owner uuid.UUID) ([]core.Category, error)
		UpdateCategory(ctx context.Context, c core.Category) error
		DeleteCategory(ctx context.Context, id int64) error
	}

	TransactionStore interface {
		// CreateTransaction persists t and assigns its ID.
		CreateTransaction(ctx context.Context, t *core.Transaction) error
		GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
		ListTransactionsByOwner(ctx context.Context, owner uuid.UUID) ([]core.Transaction, error)
		ListTransactionsByOwnerAndType(ctx context.Context, owner uuid.UUID, t core.TransactionType) ([]core.Transaction, error)
		// ListTransactionsByOwnerCreatedBetween is inclusive on both ends.
		ListTransactionsByOwnerCreatedBetween(ctx context.Context, owner uuid.UUID, start, end time.Time) ([]core.Transaction, error)
		ListRecurringTransactions(ctx context.Context) ([]core.Transaction, error)
		ListTransactionsByCategory(ctx context.Context, categoryID int64) ([]core.Transaction, error)
		UpdateTransaction(ctx context.Context, t core.Transaction) error
		// SaveTransactions inserts transactions without an ID and updates the rest.
		SaveTransactions(ctx context.Context, ts ...*core.Transaction) error
		DeleteTransaction(ctx context.Context, id int64) error
		DetachCategoryTransactions(ctx context.Context, categoryID int64) error
		DeleteCategoryTransactions(ctx context.Context, categoryID int64) error
	}

	// Querier is the full set of operations available inside and outside a
	// storage transaction.
	Querier interface {
		UserStore
		CategoryStore
		TransactionStore
	}

	// Repository is a Querier that can scope work to one storage transaction.
	Repository interface {
		Querier
		// WithTx runs fn against a transactional Querier. The transaction is
		// committed when fn returns nil and rolled back otherwise.
		WithTx(ctx context.Context, fn func(q Querier) error) error
		Close() error
	}
)
