// Package backend opens the storage selected by DATA_BACKEND together with
// the optional AMQP event publisher.
package backend

import (
	"context"
	"errors"
	"fmt"

	"expensetracker/internal/config"
	"expensetracker/internal/services"
	"expensetracker/internal/storage"
)

type Kind string

const (
	SQLite Kind = "sqlite"
	Memory Kind = "memory"
)

// Kinds lists the supported backends.
func Kinds() []Kind { return []Kind{SQLite, Memory} }

func (k Kind) valid() bool {
	for _, known := range Kinds() {
		if k == known {
			return true
		}
	}
	return false
}

// Settings select and parameterize a backend.
type Settings struct {
	Kind         Kind
	SQLiteDBPath string

	// Events are published when AMQPURL is set, whatever the storage.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// FromConfig picks the backend settings out of the application config.
func FromConfig(cfg *config.Config) (Settings, error) {
	if cfg == nil {
		return Settings{}, errors.New("app config is nil")
	}
	s := Settings{
		Kind:         Kind(cfg.DataBackend),
		SQLiteDBPath: cfg.SQLiteDBPath,
		AMQPURL:      cfg.AMQPURL,
		AMQPExchange: cfg.AMQPExchange,
		AMQPQueue:    cfg.AMQPQueue,
	}
	return s, s.Validate()
}

func (s Settings) Validate() error {
	switch {
	case !s.Kind.valid():
		return fmt.Errorf("unknown backend %q: must be one of %v", s.Kind, Kinds())
	case s.Kind == SQLite && s.SQLiteDBPath == "":
		return errors.New("SQLite database path is required for sqlite backend")
	case s.AMQPURL != "" && (s.AMQPExchange == "" || s.AMQPQueue == ""):
		return errors.New("AMQP exchange and queue are required when an AMQP URL is set")
	}
	return nil
}

// Result holds the collaborators the services are built on.
type Result struct {
	Repository storage.Repository
	// Events is nil when no broker is configured or reachable.
	Events services.EventPublisher
	// Ready backs the readiness probe.
	Ready   func(ctx context.Context) error
	Cleanup func() error
}
