// Package memory is a process-local Repository used by tests and by the
// memory data backend.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"expensetracker/internal/core"
	"expensetracker/internal/storage"
)

var (
	_ storage.Repository = (*Store)(nil)
	_ storage.Querier    = view{}
)

type Store struct {
	// txMu serializes writers; WithTx holds it for the whole callback.
	txMu sync.Mutex
	mu   sync.RWMutex
	data state
}

type state struct {
	nextCategoryID    int64
	nextTransactionID int64
	users             map[uuid.UUID]core.User
	roles             map[core.RoleName]struct{}
	categories        map[int64]core.Category
	transactions      map[int64]core.Transaction
}

func New() *Store {
	return &Store{data: state{
		users:        make(map[uuid.UUID]core.User),
		roles:        make(map[core.RoleName]struct{}),
		categories:   make(map[int64]core.Category),
		transactions: make(map[int64]core.Transaction),
	}}
}

func (s *Store) Close() error { return nil }

// WithTx runs fn against a private copy of the state and publishes it only
// when fn succeeds. Readers outside fn keep seeing the last committed state.
func (s *Store) WithTx(ctx context.Context, fn func(q storage.Querier) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	working := s.data.clone()
	s.mu.RUnlock()

	if err := fn(view{mu: new(sync.RWMutex), data: &working}); err != nil {
		return err
	}

	s.mu.Lock()
	s.data = working
	s.mu.Unlock()
	return nil
}

func (st state) clone() state {
	c := state{
		nextCategoryID:    st.nextCategoryID,
		nextTransactionID: st.nextTransactionID,
		users:             make(map[uuid.UUID]core.User, len(st.users)),
		roles:             make(map[core.RoleName]struct{}, len(st.roles)),
		categories:        make(map[int64]core.Category, len(st.categories)),
		transactions:      make(map[int64]core.Transaction, len(st.transactions)),
	}
	for k, v := range st.users {
		c.users[k] = copyUser(v)
	}
	for k := range st.roles {
		c.roles[k] = struct{}{}
	}
	for k, v := range st.categories {
		c.categories[k] = v
	}
	for k, v := range st.transactions {
		c.transactions[k] = copyTransaction(v)
	}
	return c
}

func (s *Store) view() view { return view{mu: &s.mu, data: &s.data} }

// locked runs a write outside of WithTx.
func (s *Store) locked(fn func(v view) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(s.view())
}

// Store: writes take txMu, reads go straight to the view.

func (s *Store) CreateUser(ctx context.Context, u core.User) error {
	return s.locked(func(v view) error { return v.CreateUser(ctx, u) })
}

func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (core.User, error) {
	return s.view().GetUserByID(ctx, id)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (core.User, error) {
	return s.view().GetUserByUsername(ctx, username)
}

func (s *Store) ListUsers(ctx context.Context) ([]core.User, error) {
	return s.view().ListUsers(ctx)
}

func (s *Store) EnsureRole(ctx context.Context, role core.RoleName) (bool, error) {
	var created bool
	err := s.locked(func(v view) error {
		var err error
		created, err = v.EnsureRole(ctx, role)
		return err
	})
	return created, err
}

func (s *Store) RoleExists(ctx context.Context, role core.RoleName) (bool, error) {
	return s.view().RoleExists(ctx, role)
}

func (s *Store) CreateCategory(ctx context.Context, c *core.Category) error {
	return s.locked(func(v view) error { return v.CreateCategory(ctx, c) })
}

func (s *Store) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	return s.view().GetCategory(ctx, id)
}

func (s *Store) ListCategoriesByOwner(ctx context.Context, owner uuid.UUID) ([]core.Category, error) {
	return s.view().ListCategoriesByOwner(ctx, owner)
}

func (s *Store) UpdateCategory(ctx context.Context, c core.Category) error {
	return s.locked(func(v view) error { return v.UpdateCategory(ctx, c) })
}

func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	return s.locked(func(v view) error { return v.DeleteCategory(ctx, id) })
}

func (s *Store) CreateTransaction(ctx context.Context, t *core.Transaction) error {
	return s.locked(func(v view) error { return v.CreateTransaction(ctx, t) })
}

func (s *Store) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	return s.view().GetTransaction(ctx, id)
}

func (s *Store) ListTransactionsByOwner(ctx context.Context, owner uuid.UUID) ([]core.Transaction, error) {
	return s.view().ListTransactionsByOwner(ctx, owner)
}

func (s *Store) ListTransactionsByOwnerAndType(ctx context.Context, owner uuid.UUID, t core.TransactionType) ([]core.Transaction, error) {
	return s.view().ListTransactionsByOwnerAndType(ctx, owner, t)
}

func (s *Store) ListTransactionsByOwnerCreatedBetween(ctx context.Context, owner uuid.UUID, start, end time.Time) ([]core.Transaction, error) {
	return s.view().ListTransactionsByOwnerCreatedBetween(ctx, owner, start, end)
}

func (s *Store) ListRecurringTransactions(ctx context.Context) ([]core.Transaction, error) {
	return s.view().ListRecurringTransactions(ctx)
}

func (s *Store) ListTransactionsByCategory(ctx context.Context, categoryID int64) ([]core.Transaction, error) {
	return s.view().ListTransactionsByCategory(ctx, categoryID)
}

func (s *Store) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	return s.locked(func(v view) error { return v.UpdateTransaction(ctx, t) })
}

func (s *Store) SaveTransactions(ctx context.Context, ts ...*core.Transaction) error {
	return s.WithTx(ctx, func(q storage.Querier) error { return q.SaveTransactions(ctx, ts...) })
}

func (s *Store) DeleteTransaction(ctx context.Context, id int64) error {
	return s.locked(func(v view) error { return v.DeleteTransaction(ctx, id) })
}

func (s *Store) DetachCategoryTransactions(ctx context.Context, categoryID int64) error {
	return s.locked(func(v view) error { return v.DetachCategoryTransactions(ctx, categoryID) })
}

func (s *Store) DeleteCategoryTransactions(ctx context.Context, categoryID int64) error {
	return s.locked(func(v view) error { return v.DeleteCategoryTransactions(ctx, categoryID) })
}

// view performs the actual work on data. Callers hold txMu for writes.
type view struct {
	mu   *sync.RWMutex
	data *state
}

func (v view) CreateUser(ctx context.Context, u core.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	for _, existing := range v.data.users {
		if existing.Username == u.Username || existing.ID == u.ID {
			return storage.ErrConflict
		}
	}
	for _, r := range u.Roles {
		if _, ok := v.data.roles[r]; !ok {
			return storage.ErrNotFound
		}
	}
	v.data.users[u.ID] = copyUser(u)
	return nil
}

func (v view) GetUserByID(ctx context.Context, id uuid.UUID) (core.User, error) {
	if err := ctx.Err(); err != nil {
		return core.User{}, err
	}
	v.mu.RLock()
	defer v.mu.RUnlock()

	u, ok := v.data.users[id]
	if !ok {
		return core.User{}, storage.ErrNotFound
	}
	return copyUser(u), nil
}

func (v view) GetUserByUsername(ctx context.Context, username string) (core.User, error) {
	if err := ctx.Err(); err != nil {
		return core.User{}, err
	}
	v.mu.RLock()
	defer v.mu.RUnlock()

	for _, u := range v.data.users {
		if u.Username == username {
			return copyUser(u), nil
		}
	}
	return core.User{}, storage.ErrNotFound
}

func (v view) ListUsers(ctx context.Context) ([]core.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v.mu.RLock()
	defer v.mu.RUnlock()

	users := make([]core.User, 0, len(v.data.users))
	for _, u := range v.data.users {
		users = append(users, copyUser(u))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (v view) EnsureRole(ctx context.Context, role core.RoleName) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.data.roles[role]; ok {
		return false, nil
	}
	v.data.roles[role] = struct{}{}
	return true, nil
}

func (v view) RoleExists(ctx context.Context, role core.RoleName) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	v.mu.RLock()
	defer v.mu.RUnlock()

	_, ok := v.data.roles[role]
	return ok, nil
}

func (v view) CreateCategory(ctx context.Context, c *core.Category) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	v.data.nextCategoryID++
	c.ID = v.data.nextCategoryID
	v.data.categories[c.ID] = *c
	return nil
}

func (v view) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	if err := ctx.Err(); err != nil {
		return core.Category{}, err
	}
	v.mu.RLock()
	defer v.mu.RUnlock()

	c, ok := v.data.categories[id]
	if !ok {
		return core.Category{}, storage.ErrNotFound
	}
	return c, nil
}

func (v view) ListCategoriesByOwner(ctx context.Context, owner uuid.UUID) ([]core.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v.mu.RLock()
	defer v.mu.RUnlock()

	var out []core.Category
	for _, c := range v.data.categories {
		if c.OwnerID == owner {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (v view) UpdateCategory(ctx context.Context, c core.Category) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	existing, ok := v.data.categories[c.ID]
	if !ok {
		return storage.ErrNotFound
	}
	existing.Name = c.Name
	existing.TotalAmount = c.TotalAmount
	v.data.categories[c.ID] = existing
	return nil
}

func (v view) DeleteCategory(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.data.categories[id]; !ok {
		return storage.ErrNotFound
	}
	for _, t := range v.data.transactions {
		if t.CategoryID != nil && *t.CategoryID == id {
			return storage.ErrConflict
		}
	}
	delete(v.data.categories, id)
	return nil
}

func (v view) CreateTransaction(ctx context.Context, t *core.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	v.data.nextTransactionID++
	t.ID = v.data.nextTransactionID
	v.data.transactions[t.ID] = copyTransaction(*t)
	return nil
}

func (v view) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return core.Transaction{}, err
	}
	v.mu.RLock()
	defer v.mu.RUnlock()

	t, ok := v.data.transactions[id]
	if !ok {
		return core.Transaction{}, storage.ErrNotFound
	}
	return copyTransaction(t), nil
}

func (v view) filterTransactions(ctx context.Context, keep func(core.Transaction) bool) ([]core.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v.mu.RLock()
	defer v.mu.RUnlock()

	var out []core.Transaction
	for _, t := range v.data.transactions {
		if keep(t) {
			out = append(out, copyTransaction(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (v view) ListTransactionsByOwner(ctx context.Context, owner uuid.UUID) ([]core.Transaction, error) {
	return v.filterTransactions(ctx, func(t core.Transaction) bool { return t.OwnerID == owner })
}

func (v view) ListTransactionsByOwnerAndType(ctx context.Context, owner uuid.UUID, typ core.TransactionType) ([]core.Transaction, error) {
	return v.filterTransactions(ctx, func(t core.Transaction) bool {
		return t.OwnerID == owner && t.Type == typ
	})
}

func (v view) ListTransactionsByOwnerCreatedBetween(ctx context.Context, owner uuid.UUID, start, end time.Time) ([]core.Transaction, error) {
	return v.filterTransactions(ctx, func(t core.Transaction) bool {
		return t.OwnerID == owner && !t.CreatedAt.Before(start) && !t.CreatedAt.After(end)
	})
}

func (v view) ListRecurringTransactions(ctx context.Context) ([]core.Transaction, error) {
	return v.filterTransactions(ctx, func(t core.Transaction) bool { return t.IsRecurrent })
}

func (v view) ListTransactionsByCategory(ctx context.Context, categoryID int64) ([]core.Transaction, error) {
	return v.filterTransactions(ctx, func(t core.Transaction) bool {
		return t.CategoryID != nil && *t.CategoryID == categoryID
	})
}

func (v view) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	existing, ok := v.data.transactions[t.ID]
	if !ok {
		return storage.ErrNotFound
	}
	if t.CategoryID != nil {
		if _, ok := v.data.categories[*t.CategoryID]; !ok {
			return storage.ErrNotFound
		}
	}
	existing.Title = t.Title
	existing.Description = t.Description
	existing.Amount = t.Amount
	existing.IsRecurrent = t.IsRecurrent
	existing.CategoryID = copyID(t.CategoryID)
	v.data.transactions[t.ID] = existing
	return nil
}

func (v view) SaveTransactions(ctx context.Context, ts ...*core.Transaction) error {
	for _, t := range ts {
		if t.ID == 0 {
			if err := v.CreateTransaction(ctx, t); err != nil {
				return err
			}
			continue
		}
		if err := v.UpdateTransaction(ctx, *t); err != nil {
			return err
		}
	}
	return nil
}

func (v view) DeleteTransaction(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	if _, ok := v.data.transactions[id]; !ok {
		return storage.ErrNotFound
	}
	delete(v.data.transactions, id)
	return nil
}

func (v view) DetachCategoryTransactions(ctx context.Context, categoryID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	for id, t := range v.data.transactions {
		if t.CategoryID != nil && *t.CategoryID == categoryID {
			t.CategoryID = nil
			v.data.transactions[id] = t
		}
	}
	return nil
}

func (v view) DeleteCategoryTransactions(ctx context.Context, categoryID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()

	for id, t := range v.data.transactions {
		if t.CategoryID != nil && *t.CategoryID == categoryID {
			delete(v.data.transactions, id)
		}
	}
	return nil
}

func copyUser(u core.User) core.User {
	u.Roles = append([]core.RoleName(nil), u.Roles...)
	return u
}

func copyTransaction(t core.Transaction) core.Transaction {
	t.CategoryID = copyID(t.CategoryID)
	return t
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
