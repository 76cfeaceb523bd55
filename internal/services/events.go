package services

import (
	"context"
	"log/slog"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
)

// EventPublisher delivers transaction events to the broker. *amqp.Client
// implements it.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, event *amqp.TransactionEvent) error
}

// publishEvent is best-effort: the change is already committed, so a broker
// failure is logged and swallowed.
func publishEvent(ctx context.Context, pub EventPublisher, typ amqp.EventType, t core.Transaction) {
	if pub == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping event",
			"type", typ,
			"transaction_id", t.ID)
		return
	}

	if err := pub.PublishTransactionEvent(ctx, amqp.NewTransactionEvent(typ, t)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"type", typ,
			"transaction_id", t.ID,
			"error", err)
	}
}
