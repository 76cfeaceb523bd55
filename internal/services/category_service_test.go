package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
)

func TestFetchUserCategory(t *testing.T) {
	f := newFixture(t, DeleteDetach)
	ctx := context.Background()
	c := f.category(t, f.alice, "Groceries", core.Expense)

	got, err := FetchUserCategory(ctx, f.repo, f.alice, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Groceries", got.Name)

	_, err = FetchUserCategory(ctx, f.repo, f.bob, c.ID)
	requireKind(t, err, core.KindForbidden)

	_, err = FetchUserCategory(ctx, f.repo, f.alice, 9999)
	requireKind(t, err, core.KindNotFound)

	_, err = FetchUserCategory(ctx, f.repo, uuid.Nil, c.ID)
	requireKind(t, err, core.KindUnauthenticated)
}

func TestFetchUserTransaction(t *testing.T) {
	f := newFixture(t, DeleteDetach)
	ctx := context.Background()
	tx := f.transaction(t, f.alice, core.Expense, "Milk", "5")

	_, err := FetchUserTransaction(ctx, f.repo, f.alice, tx.ID)
	require.NoError(t, err)

	_, err = FetchUserTransaction(ctx, f.repo, f.bob, tx.ID)
	requireKind(t, err, core.KindForbidden)
	assert.Equal(t, core.MsgTransactionForbidden, err.Error())

	_, err = FetchUserTransaction(ctx, f.repo, f.alice, tx.ID+100)
	requireKind(t, err, core.KindNotFound)
	assert.Equal(t, core.MsgTransactionNotFound, err.Error())
}

func TestCategoryService_CreateValidation(t *testing.T) {
	f := newFixture(t, DeleteDetach)
	ctx := context.Background()

	tests := []struct {
		name  string
		in    CategoryInput
		kind  core.Kind
		count int
	}{
		{"missing everything", CategoryInput{}, core.KindValidation, 2},
		{"blank name", CategoryInput{Name: "  ", Type: "EXPENSE"}, core.KindValidation, 1},
		{"unknown type", CategoryInput{Name: "Misc", Type: "savings"}, core.KindInvalidTransactionType, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.categories.Create(ctx, f.alice, tt.in)
			requireKind(t, err, tt.kind)
			var domainErr *core.Error
			require.ErrorAs(t, err, &domainErr)
			assert.Len(t, domainErr.Errors, tt.count)
		})
	}

	c, err := f.categories.Create(ctx, f.alice, CategoryInput{Name: " Salary ", Type: "income"})
	require.NoError(t, err)
	assert.Equal(t, "Salary", c.Name)
	assert.Equal(t, core.Income, c.Type)
	assert.True(t, c.TotalAmount.IsZero())
	assert.Empty(t, c.Transactions)
}

func TestCategoryService_GetListEdit(t *testing.T) {
	f := newFixture(t, DeleteDetach)
	ctx := context.Background()
	groceries := f.category(t, f.alice, "Groceries", core.Expense)
	f.category(t, f.alice, "Salary", core.Income)
	f.category(t, f.bob, "Bob's", core.Expense)

	list, err := f.categories.List(ctx, f.alice)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	edited, err := f.categories.Edit(ctx, f.alice, groceries.ID, "Food")
	require.NoError(t, err)
	assert.Equal(t, "Food", edited.Name)
	assert.Equal(t, core.Expense, edited.Type)

	_, err = f.categories.Edit(ctx, f.alice, groceries.ID, "")
	requireKind(t, err, core.KindValidation)

	_, err = f.categories.Edit(ctx, f.bob, groceries.ID, "Stolen")
	requireKind(t, err, core.KindForbidden)

	got, err := f.categories.Get(ctx, f.alice, groceries.ID)
	require.NoError(t, err)
	assert.Equal(t, "Food", got.Name)
}

func TestCategoryService_AddAndRemoveTransaction(t *testing.T) {
	forEachBackend(t, DeleteDetach, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		groceries := f.category(t, f.alice, "Groceries", core.Expense)
		milk := f.transaction(t, f.alice, core.Expense, "Milk", "5.0")

		c, err := f.categories.AddTransaction(ctx, f.alice, groceries.ID, milk.ID)
		require.NoError(t, err)
		assert.True(t, c.TotalAmount.Equal(decimal.NewFromInt(-5)))
		require.Len(t, c.Transactions, 1)
		assert.Equal(t, milk.ID, c.Transactions[0].ID)

		// Adding again is a no-op
		c, err = f.categories.AddTransaction(ctx, f.alice, groceries.ID, milk.ID)
		require.NoError(t, err)
		assert.True(t, c.TotalAmount.Equal(decimal.NewFromInt(-5)))
		assert.Len(t, c.Transactions, 1)

		c, err = f.categories.RemoveTransaction(ctx, f.alice, groceries.ID, milk.ID)
		require.NoError(t, err)
		assert.True(t, c.TotalAmount.IsZero())
		assert.Empty(t, c.Transactions)

		// Removing again is a no-op
		c, err = f.categories.RemoveTransaction(ctx, f.alice, groceries.ID, milk.ID)
		require.NoError(t, err)
		assert.True(t, c.TotalAmount.IsZero())
	})
}

func TestCategoryService_AddTransactionTypeMismatch(t *testing.T) {
	forEachBackend(t, DeleteDetach, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		salary := f.category(t, f.alice, "Salary", core.Income)
		milk := f.transaction(t, f.alice, core.Expense, "Milk", "5")

		_, err := f.categories.AddTransaction(ctx, f.alice, salary.ID, milk.ID)
		requireKind(t, err, core.KindTypeMismatch)

		got, err := f.categories.Get(ctx, f.alice, salary.ID)
		require.NoError(t, err)
		assert.True(t, got.TotalAmount.IsZero())
		assert.Empty(t, got.Transactions)

		stored, err := f.repo.GetTransaction(ctx, milk.ID)
		require.NoError(t, err)
		assert.Nil(t, stored.CategoryID)
	})
}

func TestCategoryService_AddTransactionOwnership(t *testing.T) {
	f := newFixture(t, DeleteDetach)
	ctx := context.Background()
	aliceCat := f.category(t, f.alice, "Groceries", core.Expense)
	bobTx := f.transaction(t, f.bob, core.Expense, "Beer", "3")

	_, err := f.categories.AddTransaction(ctx, f.alice, aliceCat.ID, bobTx.ID)
	requireKind(t, err, core.KindForbidden)

	_, err = f.categories.AddTransaction(ctx, f.bob, aliceCat.ID, bobTx.ID)
	requireKind(t, err, core.KindForbidden)
}

func TestCategoryService_AddTransactionMovesBetweenCategories(t *testing.T) {
	forEachBackend(t, DeleteDetach, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		first := f.category(t, f.alice, "Groceries", core.Expense)
		second := f.category(t, f.alice, "Food", core.Expense)
		milk := f.transaction(t, f.alice, core.Expense, "Milk", "5")

		_, err := f.categories.AddTransaction(ctx, f.alice, first.ID, milk.ID)
		require.NoError(t, err)

		moved, err := f.categories.AddTransaction(ctx, f.alice, second.ID, milk.ID)
		require.NoError(t, err)
		assert.True(t, moved.TotalAmount.Equal(decimal.NewFromInt(-5)))
		assert.Len(t, moved.Transactions, 1)

		prev, err := f.categories.Get(ctx, f.alice, first.ID)
		require.NoError(t, err)
		assert.True(t, prev.TotalAmount.IsZero())
		assert.Empty(t, prev.Transactions)
	})
}

func TestCategoryService_TotalMatchesSum(t *testing.T) {
	forEachBackend(t, DeleteDetach, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		cat := f.category(t, f.alice, "Groceries", core.Expense)

		var ids []int64
		for _, amt := range []string{"5", "12.30", "0.70", "100"} {
			ids = append(ids, f.transaction(t, f.alice, core.Expense, "item", amt).ID)
		}

		ops := []struct {
			add bool
			idx int
		}{{true, 0}, {true, 1}, {true, 1}, {false, 0}, {true, 2}, {false, 3}, {true, 3}, {false, 1}, {true, 0}}
		for _, op := range ops {
			var (
				c   CategoryDetails
				err error
			)
			if op.add {
				c, err = f.categories.AddTransaction(ctx, f.alice, cat.ID, ids[op.idx])
			} else {
				c, err = f.categories.RemoveTransaction(ctx, f.alice, cat.ID, ids[op.idx])
			}
			require.NoError(t, err)
			assert.True(t, c.TotalAmount.Equal(core.Sum(c.Transactions)),
				"total %s != sum %s", c.TotalAmount, core.Sum(c.Transactions))
		}
	})
}

func TestCategoryService_RemoveDetach(t *testing.T) {
	forEachBackend(t, DeleteDetach, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		cat := f.category(t, f.alice, "Groceries", core.Expense)
		milk := f.transaction(t, f.alice, core.Expense, "Milk", "5")
		_, err := f.categories.AddTransaction(ctx, f.alice, cat.ID, milk.ID)
		require.NoError(t, err)

		requireKind(t, f.categories.Remove(ctx, f.bob, cat.ID), core.KindForbidden)
		require.NoError(t, f.categories.Remove(ctx, f.alice, cat.ID))

		_, err = f.categories.Get(ctx, f.alice, cat.ID)
		requireKind(t, err, core.KindNotFound)

		stored, err := f.transactions.Get(ctx, f.alice, milk.ID)
		require.NoError(t, err)
		assert.Nil(t, stored.CategoryID)
	})
}

func TestCategoryService_RemoveCascade(t *testing.T) {
	forEachBackend(t, DeleteCascade, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		cat := f.category(t, f.alice, "Groceries", core.Expense)
		milk := f.transaction(t, f.alice, core.Expense, "Milk", "5")
		keep := f.transaction(t, f.alice, core.Expense, "Bread", "2")
		_, err := f.categories.AddTransaction(ctx, f.alice, cat.ID, milk.ID)
		require.NoError(t, err)

		require.NoError(t, f.categories.Remove(ctx, f.alice, cat.ID))

		_, err = f.transactions.Get(ctx, f.alice, milk.ID)
		requireKind(t, err, core.KindNotFound)
		_, err = f.transactions.Get(ctx, f.alice, keep.ID)
		require.NoError(t, err)

		assert.Contains(t, f.events.types(), amqp.EventTransactionDeleted)
	})
}

func TestDeletePolicyFallback(t *testing.T) {
	s := NewCategoryService(nil, nil, DeletePolicy("shred"))
	assert.Equal(t, DeleteDetach, s.policy)
	assert.True(t, DeleteCascade.IsValid())
	assert.False(t, DeletePolicy("").IsValid())
}
