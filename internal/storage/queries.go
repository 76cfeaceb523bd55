package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Row types mirror the table columns.

type UserRow struct {
	ID           string
	Username     string
	PasswordHash string
}

type CategoryRow struct {
	ID          int64
	Name        string
	Type        string
	TotalAmount string
	OwnerID     string
}

type TransactionRow struct {
	ID          int64
	Type        string
	Title       string
	Description string
	Amount      string
	IsRecurrent bool
	CreatedAt   int64
	OwnerID     string
	CategoryID  sql.NullInt64
}

// Users

const createUser = `INSERT INTO users (id, username, password_hash) VALUES (?, ?, ?)`

func (q *Queries) CreateUser(ctx context.Context, arg UserRow) error {
	_, err := q.db.ExecContext(ctx, createUser, arg.ID, arg.Username, arg.PasswordHash)
	return err
}

const addUserRole = `INSERT OR IGNORE INTO user_roles (user_id, role_name) VALUES (?, ?)`

func (q *Queries) AddUserRole(ctx context.Context, userID, role string) error {
	_, err := q.db.ExecContext(ctx, addUserRole, userID, role)
	return err
}

const getUserByID = `SELECT id, username, password_hash FROM users WHERE id = ?`

func (q *Queries) GetUserByID(ctx context.Context, id string) (UserRow, error) {
	var u UserRow
	err := q.db.QueryRowContext(ctx, getUserByID, id).Scan(&u.ID, &u.Username, &u.PasswordHash)
	return u, err
}

const getUserByUsername = `SELECT id, username, password_hash FROM users WHERE username = ?`

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (UserRow, error) {
	var u UserRow
	err := q.db.QueryRowContext(ctx, getUserByUsername, username).Scan(&u.ID, &u.Username, &u.PasswordHash)
	return u, err
}

const listUsers = `SELECT id, username, password_hash FROM users ORDER BY username`

func (q *Queries) ListUsers(ctx context.Context) ([]UserRow, error) {
	rows, err := q.db.QueryContext(ctx, listUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []UserRow
	for rows.Next() {
		var u UserRow
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash); err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	return items, rows.Err()
}

const listUserRoles = `SELECT role_name FROM user_roles WHERE user_id = ? ORDER BY role_name`

func (q *Queries) ListUserRoles(ctx context.Context, userID string) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listUserRoles, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		items = append(items, name)
	}
	return items, rows.Err()
}

const insertRole = `INSERT OR IGNORE INTO roles (name) VALUES (?)`

func (q *Queries) InsertRole(ctx context.Context, name string) (int64, error) {
	res, err := q.db.ExecContext(ctx, insertRole, name)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const countRole = `SELECT COUNT(*) FROM roles WHERE name = ?`

func (q *Queries) CountRole(ctx context.Context, name string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countRole, name).Scan(&n)
	return n, err
}

// Categories

const createCategory = `INSERT INTO categories (name, type, total_amount, owner_id)
VALUES (?, ?, ?, ?)
RETURNING id`

func (q *Queries) CreateCategory(ctx context.Context, arg CategoryRow) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, createCategory, arg.Name, arg.Type, arg.TotalAmount, arg.OwnerID).Scan(&id)
	return id, err
}

const categoryColumns = `id, name, type, total_amount, owner_id`

func scanCategory(s interface{ Scan(...any) error }) (CategoryRow, error) {
	var c CategoryRow
	err := s.Scan(&c.ID, &c.Name, &c.Type, &c.TotalAmount, &c.OwnerID)
	return c, err
}

const getCategory = `SELECT ` + categoryColumns + ` FROM categories WHERE id = ?`

func (q *Queries) GetCategory(ctx context.Context, id int64) (CategoryRow, error) {
	return scanCategory(q.db.QueryRowContext(ctx, getCategory, id))
}

const listCategoriesByOwner = `SELECT ` + categoryColumns + ` FROM categories WHERE owner_id = ? ORDER BY id`

func (q *Queries) ListCategoriesByOwner(ctx context.Context, ownerID string) ([]CategoryRow, error) {
	rows, err := q.db.QueryContext(ctx, listCategoriesByOwner, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []CategoryRow
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

const updateCategory = `UPDATE categories SET name = ?, total_amount = ? WHERE id = ?`

func (q *Queries) UpdateCategory(ctx context.Context, arg CategoryRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateCategory, arg.Name, arg.TotalAmount, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteCategory = `DELETE FROM categories WHERE id = ?`

func (q *Queries) DeleteCategory(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteCategory, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Transactions

const createTransaction = `INSERT INTO transactions
    (type, title, description, amount, is_recurrent, created_at, owner_id, category_id)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id`

func (q *Queries) CreateTransaction(ctx context.Context, arg TransactionRow) (int64, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, createTransaction,
		arg.Type, arg.Title, arg.Description, arg.Amount,
		arg.IsRecurrent, arg.CreatedAt, arg.OwnerID, arg.CategoryID,
	).Scan(&id)
	return id, err
}

const transactionColumns = `id, type, title, description, amount, is_recurrent, created_at, owner_id, category_id`

func scanTransaction(s interface{ Scan(...any) error }) (TransactionRow, error) {
	var t TransactionRow
	err := s.Scan(&t.ID, &t.Type, &t.Title, &t.Description, &t.Amount,
		&t.IsRecurrent, &t.CreatedAt, &t.OwnerID, &t.CategoryID)
	return t, err
}

func (q *Queries) listTransactions(ctx context.Context, query string, args ...any) ([]TransactionRow, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []TransactionRow
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

const getTransaction = `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ?`

func (q *Queries) GetTransaction(ctx context.Context, id int64) (TransactionRow, error) {
	return scanTransaction(q.db.QueryRowContext(ctx, getTransaction, id))
}

const listTransactionsByOwner = `SELECT ` + transactionColumns + `
FROM transactions WHERE owner_id = ? ORDER BY created_at, id`

func (q *Queries) ListTransactionsByOwner(ctx context.Context, ownerID string) ([]TransactionRow, error) {
	return q.listTransactions(ctx, listTransactionsByOwner, ownerID)
}

const listTransactionsByOwnerAndType = `SELECT ` + transactionColumns + `
FROM transactions WHERE owner_id = ? AND type = ? ORDER BY created_at, id`

func (q *Queries) ListTransactionsByOwnerAndType(ctx context.Context, ownerID, typ string) ([]TransactionRow, error) {
	return q.listTransactions(ctx, listTransactionsByOwnerAndType, ownerID, typ)
}

const listTransactionsByOwnerCreatedBetween = `SELECT ` + transactionColumns + `
FROM transactions WHERE owner_id = ? AND created_at BETWEEN ? AND ? ORDER BY created_at, id`

func (q *Queries) ListTransactionsByOwnerCreatedBetween(ctx context.Context, ownerID string, start, end int64) ([]TransactionRow, error) {
	return q.listTransactions(ctx, listTransactionsByOwnerCreatedBetween, ownerID, start, end)
}

const listRecurringTransactions = `SELECT ` + transactionColumns + `
FROM transactions WHERE is_recurrent = 1 ORDER BY id`

func (q *Queries) ListRecurringTransactions(ctx context.Context) ([]TransactionRow, error) {
	return q.listTransactions(ctx, listRecurringTransactions)
}

const listTransactionsByCategory = `SELECT ` + transactionColumns + `
FROM transactions WHERE category_id = ? ORDER BY created_at, id`

func (q *Queries) ListTransactionsByCategory(ctx context.Context, categoryID int64) ([]TransactionRow, error) {
	return q.listTransactions(ctx, listTransactionsByCategory, categoryID)
}

const updateTransaction = `UPDATE transactions
SET title = ?, description = ?, amount = ?, is_recurrent = ?, category_id = ?
WHERE id = ?`

func (q *Queries) UpdateTransaction(ctx context.Context, arg TransactionRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateTransaction,
		arg.Title, arg.Description, arg.Amount, arg.IsRecurrent, arg.CategoryID, arg.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteTransaction = `DELETE FROM transactions WHERE id = ?`

func (q *Queries) DeleteTransaction(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteTransaction, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const detachCategoryTransactions = `UPDATE transactions SET category_id = NULL WHERE category_id = ?`

func (q *Queries) DetachCategoryTransactions(ctx context.Context, categoryID int64) error {
	_, err := q.db.ExecContext(ctx, detachCategoryTransactions, categoryID)
	return err
}

const deleteCategoryTransactions = `DELETE FROM transactions WHERE category_id = ?`

func (q *Queries) DeleteCategoryTransactions(ctx context.Context, categoryID int64) error {
	_, err := q.db.ExecContext(ctx, deleteCategoryTransactions, categoryID)
	return err
}
