package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
	"expensetracker/internal/storage"
)

// RecurringProcessor closes out recurring transactions and opens their next
// occurrence.
type RecurringProcessor struct {
	repo   storage.Repository
	events EventPublisher
}

func NewRecurringProcessor(repo storage.Repository, events EventPublisher) *RecurringProcessor {
	return &RecurringProcessor{repo: repo, events: events}
}

// errNoLongerRecurring marks a snapshot entry that another run already
// rolled over.
var errNoLongerRecurring = errors.New("transaction is no longer recurring")

// Rollover handles every transaction flagged recurring at call time. Each
// original and its clone are written in one storage transaction; a failed
// pair is logged and skipped. It returns the number of clones created.
func (p *RecurringProcessor) Rollover(ctx context.Context, now time.Time) (int, error) {
	if p.repo == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}

	recurring, err := p.repo.ListRecurringTransactions(ctx)
	if err != nil {
		return 0, fmt.Errorf("list recurring transactions: %w", err)
	}

	slog.InfoContext(ctx, "Processing recurring transactions",
		"total_recurring", len(recurring),
		"processing_date", now.Format("2006-01-02"))

	created := 0
	for _, snapshot := range recurring {
		next, err := p.rollOne(ctx, snapshot.ID, now)
		if errors.Is(err, errNoLongerRecurring) {
			slog.InfoContext(ctx, "Skipping transaction already rolled over",
				"transaction_id", snapshot.ID)
			continue
		}
		if err != nil {
			slog.ErrorContext(ctx, "Failed to roll over recurring transaction",
				"transaction_id", snapshot.ID,
				"title", snapshot.Title,
				"error", err)
			continue
		}

		created++
		slog.InfoContext(ctx, "Opened next occurrence of recurring transaction",
			"transaction_id", snapshot.ID,
			"next_transaction_id", next.ID,
			"user_id", next.OwnerID)

		publishEvent(ctx, p.events, amqp.EventTransactionRolledOver, *next)
	}

	slog.InfoContext(ctx, "Recurring transaction processing complete",
		"created", created,
		"total_checked", len(recurring))

	return created, nil
}

func (p *RecurringProcessor) rollOne(ctx context.Context, id int64, now time.Time) (*core.Transaction, error) {
	var next *core.Transaction
	err := p.repo.WithTx(ctx, func(q storage.Querier) error {
		orig, err := q.GetTransaction(ctx, id)
		if err != nil {
			return fmt.Errorf("reload transaction: %w", err)
		}
		if !orig.IsRecurrent {
			return errNoLongerRecurring
		}

		next = orig.NextOccurrence(now)
		orig.IsRecurrent = false
		return q.SaveTransactions(ctx, &orig, next)
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}
