// Package backend selects and wires the storage backend from config.
package backend

import (
	"fmt"

	"tally/internal/amqp"
	"tally/internal/config"
	applog "tally/internal/log"
	"tally/internal/storage"
	"tally/internal/store"
	"tally/internal/store/memory"
)

// Type is the storage backend selector.
type Type string

const (
	Memory Type = "memory"
	SQLite Type = "sqlite"
)

func (t Type) Valid() bool {
	return t == Memory || t == SQLite
}

// Result is an opened backend. Repo is nil for the memory backend; AMQP
// is nil when no broker is configured or reachable.
type Result struct {
	Stores store.Stores
	Repo   *storage.Repository
	AMQP   *amqp.Client
}

// Open builds the stores named by cfg.DataBackend and, when configured,
// the AMQP client. A broker connection failure is not fatal: the process
// continues standalone.
func Open(cfg *config.Config, logger *applog.Logger) (*Result, error) {
	t := Type(cfg.DataBackend)
	if !t.Valid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.DataBackend)
	}

	res := &Result{}
	switch t {
	case SQLite:
		repo, err := storage.NewRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite backend: %w", err)
		}
		res.Repo = repo
		res.Stores = repo.Stores()
		logger.Info("Initialized SQLite backend", "path", cfg.SQLiteDBPath)
	case Memory:
		res.Stores = memory.NewStores()
		logger.Info("Initialized memory backend")
	}

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing standalone", applog.FieldError, err)
		} else {
			res.AMQP = client
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	return res, nil
}

// Close releases backend resources in reverse acquisition order.
func (r *Result) Close() {
	if r.AMQP != nil {
		_ = r.AMQP.Close()
	}
	if r.Repo != nil {
		_ = r.Repo.Close()
	}
}
