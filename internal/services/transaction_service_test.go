package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
)

func TestTransactionService_CreateSignConvention(t *testing.T) {
	tests := []struct {
		name  string
		typ   string
		input string
		want  string
	}{
		{"expense positive", "EXPENSE", "5.0", "-5"},
		{"expense negative", "expense", "-5", "-5"},
		{"income positive", "INCOME", "1200.50", "1200.5"},
		{"income negative", "Income", "-3", "3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, DeleteDetach)
			tx, err := f.transactions.Create(context.Background(), f.alice, TransactionInput{
				Type:   tt.typ,
				Title:  "t",
				Amount: amount(tt.input),
			})
			require.NoError(t, err)
			assert.True(t, tx.Amount.Equal(decimal.RequireFromString(tt.want)), "got %s", tx.Amount)
			assert.NotZero(t, tx.ID)
			assert.False(t, tx.CreatedAt.IsZero())
			assert.Equal(t, []amqp.EventType{amqp.EventTransactionCreated}, f.events.types())
		})
	}
}

func TestTransactionService_CreateValidation(t *testing.T) {
	f := newFixture(t, DeleteDetach)
	ctx := context.Background()

	_, err := f.transactions.Create(ctx, f.alice, TransactionInput{Title: "  "})
	requireKind(t, err, core.KindValidation)
	var domainErr *core.Error
	require.ErrorAs(t, err, &domainErr)
	assert.ElementsMatch(t, []string{core.MsgTransactionTypeRequired, core.MsgTitleRequired, core.MsgAmountRequired}, domainErr.Errors)

	_, err = f.transactions.Create(ctx, f.alice, TransactionInput{Type: "gift", Title: "x", Amount: amount("1")})
	requireKind(t, err, core.KindInvalidTransactionType)

	assert.Empty(t, f.events.types())
}

func TestTransactionService_CreateSurvivesPublishFailure(t *testing.T) {
	f := newFixture(t, DeleteDetach)
	f.events.err = errBrokerDown

	tx, err := f.transactions.Create(context.Background(), f.alice, TransactionInput{Type: "INCOME", Title: "Salary", Amount: amount("10")})
	require.NoError(t, err)

	_, err = f.transactions.Get(context.Background(), f.alice, tx.ID)
	assert.NoError(t, err)
}

func TestTransactionService_CreateWithoutPublisher(t *testing.T) {
	f := newFixture(t, DeleteDetach)
	s := NewTransactionService(f.repo, nil)

	_, err := s.Create(context.Background(), f.alice, TransactionInput{Type: "INCOME", Title: "Salary", Amount: amount("10")})
	assert.NoError(t, err)
}

func TestTransactionService_List(t *testing.T) {
	f := newFixture(t, DeleteDetach)
	ctx := context.Background()
	f.transaction(t, f.alice, core.Expense, "Milk", "5")
	f.transaction(t, f.alice, core.Income, "Salary", "1000")
	f.transaction(t, f.bob, core.Expense, "Beer", "3")

	tests := []struct {
		filter string
		want   int
	}{
		{"", 2},
		{"   ", 2},
		{"EXPENSE", 1},
		{"income", 1},
		{"Expense", 1},
	}
	for _, tt := range tests {
		t.Run("filter "+tt.filter, func(t *testing.T) {
			ts, err := f.transactions.List(ctx, f.alice, tt.filter)
			require.NoError(t, err)
			assert.Len(t, ts, tt.want)
		})
	}

	_, err := f.transactions.List(ctx, f.alice, "inexistent")
	requireKind(t, err, core.KindInvalidTransactionType)
	assert.Equal(t, "Specified transaction type does not exist", err.Error())
}

func TestTransactionService_EditPartial(t *testing.T) {
	f := newFixture(t, DeleteDetach)
	ctx := context.Background()
	tx := f.transaction(t, f.alice, core.Expense, "Milk", "5")

	desc := "semi-skimmed"
	edited, err := f.transactions.Edit(ctx, f.alice, tx.ID, TransactionEdit{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "Milk", edited.Title)
	assert.Equal(t, "semi-skimmed", edited.Description)
	assert.True(t, edited.Amount.Equal(decimal.NewFromInt(-5)))
	assert.Equal(t, core.Expense, edited.Type)

	recurrent := true
	edited, err = f.transactions.Edit(ctx, f.alice, tx.ID, TransactionEdit{Amount: amount("7"), IsRecurrent: &recurrent})
	require.NoError(t, err)
	assert.True(t, edited.Amount.Equal(decimal.NewFromInt(-7)), "edited amount keeps the expense sign")
	assert.True(t, edited.IsRecurrent)

	blank := " "
	_, err = f.transactions.Edit(ctx, f.alice, tx.ID, TransactionEdit{Title: &blank})
	requireKind(t, err, core.KindValidation)

	_, err = f.transactions.Edit(ctx, f.bob, tx.ID, TransactionEdit{Description: &desc})
	requireKind(t, err, core.KindForbidden)

	assert.Equal(t, []amqp.EventType{
		amqp.EventTransactionCreated,
		amqp.EventTransactionUpdated,
		amqp.EventTransactionUpdated,
	}, f.events.types())
}

func TestTransactionService_EditAdjustsCategoryTotal(t *testing.T) {
	forEachBackend(t, DeleteDetach, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		cat := f.category(t, f.alice, "Groceries", core.Expense)
		milk := f.transaction(t, f.alice, core.Expense, "Milk", "5")
		bread := f.transaction(t, f.alice, core.Expense, "Bread", "2")
		for _, id := range []int64{milk.ID, bread.ID} {
			_, err := f.categories.AddTransaction(ctx, f.alice, cat.ID, id)
			require.NoError(t, err)
		}

		_, err := f.transactions.Edit(ctx, f.alice, milk.ID, TransactionEdit{Amount: amount("8")})
		require.NoError(t, err)

		got, err := f.categories.Get(ctx, f.alice, cat.ID)
		require.NoError(t, err)
		assert.True(t, got.TotalAmount.Equal(decimal.NewFromInt(-10)), "got %s", got.TotalAmount)
		assert.True(t, got.TotalAmount.Equal(core.Sum(got.Transactions)))
	})
}

func TestTransactionService_Remove(t *testing.T) {
	forEachBackend(t, DeleteDetach, func(t *testing.T, f *fixture) {
		ctx := context.Background()
		cat := f.category(t, f.alice, "Groceries", core.Expense)
		milk := f.transaction(t, f.alice, core.Expense, "Milk", "5")
		_, err := f.categories.AddTransaction(ctx, f.alice, cat.ID, milk.ID)
		require.NoError(t, err)

		requireKind(t, f.transactions.Remove(ctx, f.bob, milk.ID), core.KindForbidden)
		require.NoError(t, f.transactions.Remove(ctx, f.alice, milk.ID))

		_, err = f.transactions.Get(ctx, f.alice, milk.ID)
		requireKind(t, err, core.KindNotFound)

		got, err := f.categories.Get(ctx, f.alice, cat.ID)
		require.NoError(t, err)
		assert.True(t, got.TotalAmount.IsZero())
		assert.Empty(t, got.Transactions)

		requireKind(t, f.transactions.Remove(ctx, f.alice, milk.ID), core.KindNotFound)
		assert.Contains(t, f.events.types(), amqp.EventTransactionDeleted)
	})
}

func TestBalanceService(t *testing.T) {
	f := newFixture(t, DeleteDetach)
	ctx := context.Background()
	now := time.Date(2025, time.March, 15, 10, 0, 0, 0, time.Local)
	start, end := core.MonthBounds(now)

	seed := func(owner uuid.UUID, typ core.TransactionType, amt string, at time.Time) {
		tx := core.NewTransaction(owner, typ, "t", "", decimal.RequireFromString(amt), at)
		require.NoError(t, f.repo.CreateTransaction(ctx, tx))
	}
	seed(f.alice, core.Income, "1000", start)
	seed(f.alice, core.Expense, "250.5", end)
	seed(f.alice, core.Expense, "10", now)
	seed(f.alice, core.Expense, "999", start.Add(-time.Nanosecond))
	seed(f.alice, core.Income, "999", end.Add(time.Nanosecond))
	seed(f.bob, core.Income, "5", now)

	svc := NewBalanceService(f.repo, func() time.Time { return now })
	got, err := svc.GetCurrentBalance(ctx, f.alice)
	require.NoError(t, err)
	assert.Equal(t, time.March, got.Month)
	assert.Equal(t, "March", got.Month.String())
	assert.True(t, got.Balance.Equal(decimal.RequireFromString("739.5")), "got %s", got.Balance)

	empty := NewBalanceService(f.repo, func() time.Time { return now.AddDate(0, 2, 0) })
	got, err = empty.GetCurrentBalance(ctx, f.alice)
	require.NoError(t, err)
	assert.True(t, got.Balance.IsZero())
	assert.Equal(t, "0", got.Balance.String())
}
