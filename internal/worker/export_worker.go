package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"expensetracker/internal/amqp"
	"expensetracker/internal/sheets"
)

// EventSource delivers transaction events to a handler until ctx is done.
// *amqp.Client implements it.
type EventSource interface {
	ConsumeTransactionEvents(ctx context.Context, handler func(context.Context, *amqp.TransactionEvent) error) error
}

// ExportWorker mirrors transaction events into the export sheet.
type ExportWorker struct {
	source EventSource
	rows   sheets.RowWriter

	// Lifecycle management
	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	doneCh  chan struct{}
	err     error
}

func NewExportWorker(source EventSource, rows sheets.RowWriter) *ExportWorker {
	return &ExportWorker{source: source, rows: rows}
}

// HandleEvent appends the row for one event. Creations and rollovers record
// the transaction; updates and deletions are written as audit rows.
func (w *ExportWorker) HandleEvent(ctx context.Context, e *amqp.TransactionEvent) error {
	row := sheets.Row{
		CreatedAt:     e.CreatedAt,
		TransactionID: e.TransactionID,
		Type:          string(e.TransactionType),
		Title:         e.Title,
		Amount:        e.Amount,
		OwnerID:       e.OwnerID,
	}

	switch e.Type {
	case amqp.EventTransactionCreated, amqp.EventTransactionRolledOver:
	case amqp.EventTransactionUpdated, amqp.EventTransactionDeleted:
		row.Event = string(e.Type)
	default:
		slog.WarnContext(ctx, "Ignoring unknown event type",
			"type", e.Type,
			"transaction_id", e.TransactionID)
		return nil
	}

	ref, err := w.rows.Append(ctx, row)
	if err != nil {
		return fmt.Errorf("append %s row: %w", e.Type, err)
	}

	slog.InfoContext(ctx, "Exported transaction event",
		"type", e.Type,
		"transaction_id", e.TransactionID,
		"sheets_ref", ref)
	return nil
}

// Start runs the consume loop in the background. Returns an error if already
// running.
func (w *ExportWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return fmt.Errorf("export worker is already running")
	}

	ctx, cancel := context.WithCancel(ctx)
	w.running = true
	w.cancel = cancel
	w.doneCh = make(chan struct{})
	w.err = nil

	go w.run(ctx, w.doneCh)

	slog.InfoContext(ctx, "Export worker started")
	return nil
}

func (w *ExportWorker) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	err := w.source.ConsumeTransactionEvents(ctx, w.HandleEvent)
	if ctx.Err() != nil {
		err = nil
	}

	w.mu.Lock()
	w.err = err
	w.running = false
	w.mu.Unlock()

	if err != nil {
		slog.ErrorContext(ctx, "Export worker stopped with error", "error", err)
	}
}

// Done is closed when the consume loop exits. It is nil before Start.
func (w *ExportWorker) Done() <-chan struct{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.doneCh
}

// Err returns why the consume loop exited, or nil after a requested stop.
func (w *ExportWorker) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Stop cancels the consume loop and waits for it to exit.
func (w *ExportWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if w.cancel == nil {
		w.mu.Unlock()
		return nil
	}
	cancel, done := w.cancel, w.doneCh
	w.mu.Unlock()

	cancel()

	select {
	case <-done:
		slog.InfoContext(ctx, "Export worker stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Export worker stop timed out")
		return ctx.Err()
	}
}

// IsRunning returns whether the consume loop is active
func (w *ExportWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
