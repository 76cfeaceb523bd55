package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"expensetracker/internal/amqp"
	"expensetracker/internal/storage"
	"expensetracker/internal/storage/memory"
)

// DefaultFactory opens backends, dialing the real broker.
type DefaultFactory struct {
	logger    *slog.Logger
	newBroker func(url, exchange, queue string) (*amqp.Client, error)
}

func NewFactory(logger *slog.Logger) *DefaultFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger:    logger,
		newBroker: amqp.NewClient,
	}
}

// Open creates the storage for s and attaches the broker when configured.
func (f *DefaultFactory) Open(ctx context.Context, s Settings) (*Result, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	var res *Result
	switch s.Kind {
	case SQLite:
		repo, err := storage.NewSQLiteRepository(s.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", s.SQLiteDBPath)
		res = &Result{Repository: repo, Ready: repo.Ping, Cleanup: repo.Close}
	case Memory:
		store := memory.New()
		f.logger.WarnContext(ctx, "Initialized memory backend, data is lost on restart")
		res = &Result{
			Repository: store,
			Ready:      func(context.Context) error { return nil },
			Cleanup:    store.Close,
		}
	}

	f.attachBroker(ctx, res, s)
	return res, nil
}

// attachBroker connects the optional AMQP publisher. An unreachable broker
// leaves Events nil and the services run without event delivery.
func (f *DefaultFactory) attachBroker(ctx context.Context, res *Result, s Settings) {
	if s.AMQPURL == "" {
		f.logger.InfoContext(ctx, "AMQP not configured, transaction events disabled")
		return
	}

	client, err := f.newBroker(s.AMQPURL, s.AMQPExchange, s.AMQPQueue)
	if err != nil {
		f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without events", "error", err)
		return
	}

	f.logger.InfoContext(ctx, "Initialized AMQP client",
		"exchange", s.AMQPExchange,
		"queue", s.AMQPQueue)

	res.Events = client
	closeStorage := res.Cleanup
	res.Cleanup = func() error {
		return errors.Join(client.Close(), closeStorage())
	}
}
