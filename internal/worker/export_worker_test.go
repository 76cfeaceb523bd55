package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
	"expensetracker/internal/sheets"
	"expensetracker/internal/sheets/memory"
)

// fakeSource hands its events to the handler and then blocks until the
// context ends, or fails immediately when err is set.
type fakeSource struct {
	events  []*amqp.TransactionEvent
	err     error
	handled chan error
}

func (f *fakeSource) ConsumeTransactionEvents(ctx context.Context, handler func(context.Context, *amqp.TransactionEvent) error) error {
	if f.err != nil {
		return f.err
	}
	for _, e := range f.events {
		f.handled <- handler(ctx, e)
	}
	<-ctx.Done()
	return ctx.Err()
}

type failingWriter struct{}

func (failingWriter) Append(context.Context, sheets.Row) (string, error) {
	return "", errors.New("quota exceeded")
}

func event(typ amqp.EventType, id int64) *amqp.TransactionEvent {
	return amqp.NewTransactionEvent(typ, core.Transaction{
		ID:        id,
		Type:      core.Expense,
		Title:     "Rent",
		Amount:    decimal.NewFromInt(-800),
		CreatedAt: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		OwnerID:   uuid.New(),
	})
}

func TestExportWorker_HandleEvent(t *testing.T) {
	tests := []struct {
		name      string
		typ       amqp.EventType
		wantRows  int
		wantEvent string
	}{
		{"created", amqp.EventTransactionCreated, 1, ""},
		{"rolled over", amqp.EventTransactionRolledOver, 1, ""},
		{"updated", amqp.EventTransactionUpdated, 1, "transaction.updated"},
		{"deleted", amqp.EventTransactionDeleted, 1, "transaction.deleted"},
		{"unknown", amqp.EventType("transaction.archived"), 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.New()
			w := NewExportWorker(nil, store)

			require.NoError(t, w.HandleEvent(context.Background(), event(tt.typ, 5)))

			rows := store.Rows()
			require.Len(t, rows, tt.wantRows)
			if tt.wantRows > 0 {
				assert.Equal(t, tt.wantEvent, rows[0].Event)
				assert.EqualValues(t, 5, rows[0].TransactionID)
				assert.Equal(t, "EXPENSE", rows[0].Type)
			}
		})
	}
}

func TestExportWorker_HandleEventWriterFailure(t *testing.T) {
	w := NewExportWorker(nil, failingWriter{})
	err := w.HandleEvent(context.Background(), event(amqp.EventTransactionCreated, 1))
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestExportWorker_Lifecycle(t *testing.T) {
	source := &fakeSource{
		events:  []*amqp.TransactionEvent{event(amqp.EventTransactionCreated, 1), event(amqp.EventTransactionDeleted, 1)},
		handled: make(chan error, 2),
	}
	store := memory.New()
	w := NewExportWorker(source, store)

	assert.False(t, w.IsRunning())
	assert.NoError(t, w.Stop(context.Background()), "stop before start is a no-op")

	require.NoError(t, w.Start(context.Background()))
	assert.True(t, w.IsRunning())
	assert.Error(t, w.Start(context.Background()), "second start must fail")

	for range source.events {
		require.NoError(t, <-source.handled)
	}
	assert.Len(t, store.Rows(), 2)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, w.Stop(ctx))
	assert.False(t, w.IsRunning())
	assert.NoError(t, w.Err())
}

func TestExportWorker_SourceFailure(t *testing.T) {
	w := NewExportWorker(&fakeSource{err: errors.New("message channel closed")}, memory.New())
	require.NoError(t, w.Start(context.Background()))

	select {
	case <-w.Done():
	case <-time.After(time.Second):
		t.Fatal("worker did not exit")
	}
	assert.ErrorContains(t, w.Err(), "message channel closed")
	assert.False(t, w.IsRunning())
}
