package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
	"expensetracker/internal/storage"
	"expensetracker/internal/storage/memory"
)

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.TransactionEvent
	err    error
}

func (p *recordingPublisher) PublishTransactionEvent(_ context.Context, e *amqp.TransactionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) types() []amqp.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]amqp.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

var errBrokerDown = errors.New("broker down")

type fixture struct {
	repo         storage.Repository
	events       *recordingPublisher
	categories   *CategoryService
	transactions *TransactionService
	alice, bob   uuid.UUID
}

func newFixture(t *testing.T, policy DeletePolicy) *fixture {
	t.Helper()
	return newFixtureOn(t, memory.New(), policy)
}

// forEachBackend runs fn once over the memory store and once over SQLite.
func forEachBackend(t *testing.T, policy DeletePolicy, fn func(t *testing.T, f *fixture)) {
	t.Helper()
	backends := map[string]func(t *testing.T) storage.Repository{
		"memory": func(t *testing.T) storage.Repository { return memory.New() },
		"sqlite": func(t *testing.T) storage.Repository {
			repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "services.db"))
			require.NoError(t, err)
			t.Cleanup(func() { _ = repo.Close() })
			return repo
		},
	}
	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			fn(t, newFixtureOn(t, open(t), policy))
		})
	}
}

func newFixtureOn(t *testing.T, repo storage.Repository, policy DeletePolicy) *fixture {
	t.Helper()
	events := &recordingPublisher{}

	ctx := context.Background()
	users := make([]uuid.UUID, 0, 2)
	for _, name := range []string{"alice", "bob"} {
		u := core.User{ID: uuid.New(), Username: name, PasswordHash: "x"}
		require.NoError(t, repo.CreateUser(ctx, u))
		users = append(users, u.ID)
	}

	return &fixture{
		repo:         repo,
		events:       events,
		categories:   NewCategoryService(repo, events, policy),
		transactions: NewTransactionService(repo, events),
		alice:        users[0],
		bob:          users[1],
	}
}

func amount(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func (f *fixture) category(t *testing.T, owner uuid.UUID, name string, typ core.TransactionType) CategoryDetails {
	t.Helper()
	c, err := f.categories.Create(context.Background(), owner, CategoryInput{Name: name, Type: string(typ)})
	require.NoError(t, err)
	return c
}

func (f *fixture) transaction(t *testing.T, owner uuid.UUID, typ core.TransactionType, title, amt string) core.Transaction {
	t.Helper()
	tx, err := f.transactions.Create(context.Background(), owner, TransactionInput{Type: string(typ), Title: title, Amount: amount(amt)})
	require.NoError(t, err)
	return tx
}

func requireKind(t *testing.T, err error, kind core.Kind) {
	t.Helper()
	require.Error(t, err)
	got, ok := core.KindOf(err)
	require.True(t, ok, "expected a domain error, got %v", err)
	require.Equal(t, kind, got, "error: %v", err)
}
