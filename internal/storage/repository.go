package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"expensetracker/internal/core"

	_ "modernc.org/sqlite"
)

var _ Repository = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	if r.db == nil {
		return errors.New("repository not properly initialized")
	}
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// WithTx implements Repository. Calls made on an already transactional
// repository run inside the outer transaction.
func (r *SQLiteRepository) WithTx(ctx context.Context, fn func(q Querier) error) error {
	if r.db == nil {
		return fn(r)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	scoped := &SQLiteRepository{queries: r.queries.WithTx(tx)}
	if err := fn(scoped); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.ErrorContext(ctx, "Failed to roll back transaction", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Users

func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) error {
	return r.WithTx(ctx, func(q Querier) error {
		scoped := q.(*SQLiteRepository)
		if err := scoped.queries.CreateUser(ctx, UserRow{
			ID:           u.ID.String(),
			Username:     u.Username,
			PasswordHash: u.PasswordHash,
		}); err != nil {
			return constraint(err, "create user")
		}
		for _, role := range u.Roles {
			if err := scoped.queries.AddUserRole(ctx, u.ID.String(), string(role)); err != nil {
				return fmt.Errorf("add role %s: %w", role, err)
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) GetUserByID(ctx context.Context, id uuid.UUID) (core.User, error) {
	row, err := r.queries.GetUserByID(ctx, id.String())
	if err != nil {
		return core.User{}, notFound(err, "get user by id")
	}
	return r.toUser(ctx, row)
}

func (r *SQLiteRepository) GetUserByUsername(ctx context.Context, username string) (core.User, error) {
	row, err := r.queries.GetUserByUsername(ctx, username)
	if err != nil {
		return core.User{}, notFound(err, "get user by username")
	}
	return r.toUser(ctx, row)
}

func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := r.queries.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users := make([]core.User, 0, len(rows))
	for _, row := range rows {
		u, err := r.toUser(ctx, row)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

func (r *SQLiteRepository) EnsureRole(ctx context.Context, role core.RoleName) (bool, error) {
	n, err := r.queries.InsertRole(ctx, string(role))
	if err != nil {
		return false, fmt.Errorf("insert role %s: %w", role, err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) RoleExists(ctx context.Context, role core.RoleName) (bool, error) {
	n, err := r.queries.CountRole(ctx, string(role))
	if err != nil {
		return false, fmt.Errorf("count role %s: %w", role, err)
	}
	return n > 0, nil
}

func (r *SQLiteRepository) toUser(ctx context.Context, row UserRow) (core.User, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return core.User{}, fmt.Errorf("parse user id %q: %w", row.ID, err)
	}
	names, err := r.queries.ListUserRoles(ctx, row.ID)
	if err != nil {
		return core.User{}, fmt.Errorf("list user roles: %w", err)
	}
	roles := make([]core.RoleName, 0, len(names))
	for _, n := range names {
		roles = append(roles, core.RoleName(n))
	}
	return core.User{ID: id, Username: row.Username, PasswordHash: row.PasswordHash, Roles: roles}, nil
}

// Categories

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c *core.Category) error {
	id, err := r.queries.CreateCategory(ctx, fromCategory(*c))
	if err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	c.ID = id
	return nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	row, err := r.queries.GetCategory(ctx, id)
	if err != nil {
		return core.Category{}, notFound(err, "get category")
	}
	return toCategory(row)
}

func (r *SQLiteRepository) ListCategoriesByOwner(ctx context.Context, owner uuid.UUID) ([]core.Category, error) {
	rows, err := r.queries.ListCategoriesByOwner(ctx, owner.String())
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	categories := make([]core.Category, 0, len(rows))
	for _, row := range rows {
		c, err := toCategory(row)
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, nil
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) error {
	n, err := r.queries.UpdateCategory(ctx, fromCategory(c))
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id int64) error {
	n, err := r.queries.DeleteCategory(ctx, id)
	if err != nil {
		return constraint(err, "delete category")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Transactions

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t *core.Transaction) error {
	id, err := r.queries.CreateTransaction(ctx, fromTransaction(*t))
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	t.ID = id
	return nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row, err := r.queries.GetTransaction(ctx, id)
	if err != nil {
		return core.Transaction{}, notFound(err, "get transaction")
	}
	return toTransaction(row)
}

func (r *SQLiteRepository) ListTransactionsByOwner(ctx context.Context, owner uuid.UUID) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactionsByOwner(ctx, owner.String())
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return toTransactions(rows)
}

func (r *SQLiteRepository) ListTransactionsByOwnerAndType(ctx context.Context, owner uuid.UUID, t core.TransactionType) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactionsByOwnerAndType(ctx, owner.String(), string(t))
	if err != nil {
		return nil, fmt.Errorf("list transactions by type: %w", err)
	}
	return toTransactions(rows)
}

func (r *SQLiteRepository) ListTransactionsByOwnerCreatedBetween(ctx context.Context, owner uuid.UUID, start, end time.Time) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactionsByOwnerCreatedBetween(ctx, owner.String(), start.UnixNano(), end.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("list transactions created between: %w", err)
	}
	return toTransactions(rows)
}

func (r *SQLiteRepository) ListRecurringTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.queries.ListRecurringTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list recurring transactions: %w", err)
	}
	return toTransactions(rows)
}

func (r *SQLiteRepository) ListTransactionsByCategory(ctx context.Context, categoryID int64) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactionsByCategory(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list category transactions: %w", err)
	}
	return toTransactions(rows)
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	n, err := r.queries.UpdateTransaction(ctx, fromTransaction(t))
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) SaveTransactions(ctx context.Context, ts ...*core.Transaction) error {
	return r.WithTx(ctx, func(q Querier) error {
		for _, t := range ts {
			if t.ID == 0 {
				if err := q.CreateTransaction(ctx, t); err != nil {
					return err
				}
				continue
			}
			if err := q.UpdateTransaction(ctx, *t); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	n, err := r.queries.DeleteTransaction(ctx, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DetachCategoryTransactions(ctx context.Context, categoryID int64) error {
	if err := r.queries.DetachCategoryTransactions(ctx, categoryID); err != nil {
		return fmt.Errorf("detach category transactions: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteCategoryTransactions(ctx context.Context, categoryID int64) error {
	if err := r.queries.DeleteCategoryTransactions(ctx, categoryID); err != nil {
		return fmt.Errorf("delete category transactions: %w", err)
	}
	return nil
}

// Row conversion

// constraint maps sqlite constraint failures onto ErrConflict.
func constraint(err error, op string) error {
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "FOREIGN KEY constraint failed") {
		return fmt.Errorf("%s: %w", op, ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func notFound(err error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func fromCategory(c core.Category) CategoryRow {
	return CategoryRow{
		ID:          c.ID,
		Name:        c.Name,
		Type:        string(c.Type),
		TotalAmount: c.TotalAmount.String(),
		OwnerID:     c.OwnerID.String(),
	}
}

func toCategory(row CategoryRow) (core.Category, error) {
	owner, err := uuid.Parse(row.OwnerID)
	if err != nil {
		return core.Category{}, fmt.Errorf("parse category owner %q: %w", row.OwnerID, err)
	}
	total, err := decimal.NewFromString(row.TotalAmount)
	if err != nil {
		return core.Category{}, fmt.Errorf("parse category total %q: %w", row.TotalAmount, err)
	}
	return core.Category{
		ID:          row.ID,
		Name:        row.Name,
		Type:        core.TransactionType(row.Type),
		TotalAmount: total,
		OwnerID:     owner,
	}, nil
}

func fromTransaction(t core.Transaction) TransactionRow {
	row := TransactionRow{
		ID:          t.ID,
		Type:        string(t.Type),
		Title:       t.Title,
		Description: t.Description,
		Amount:      t.Amount.String(),
		IsRecurrent: t.IsRecurrent,
		CreatedAt:   t.CreatedAt.UnixNano(),
		OwnerID:     t.OwnerID.String(),
	}
	if t.CategoryID != nil {
		row.CategoryID = sql.NullInt64{Int64: *t.CategoryID, Valid: true}
	}
	return row
}

func toTransaction(row TransactionRow) (core.Transaction, error) {
	owner, err := uuid.Parse(row.OwnerID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction owner %q: %w", row.OwnerID, err)
	}
	amount, err := decimal.NewFromString(row.Amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse transaction amount %q: %w", row.Amount, err)
	}
	t := core.Transaction{
		ID:          row.ID,
		Type:        core.TransactionType(row.Type),
		Title:       row.Title,
		Description: row.Description,
		Amount:      amount,
		IsRecurrent: row.IsRecurrent,
		CreatedAt:   time.Unix(0, row.CreatedAt).In(time.Local),
		OwnerID:     owner,
	}
	if row.CategoryID.Valid {
		id := row.CategoryID.Int64
		t.CategoryID = &id
	}
	return t, nil
}

func toTransactions(rows []TransactionRow) ([]core.Transaction, error) {
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := toTransaction(row)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
