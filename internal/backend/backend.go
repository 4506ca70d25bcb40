// Package backend opens the record store selected by DATA_BACKEND.
package backend

import (
	"context"
	"errors"
	"fmt"

	"ledger/internal/config"
	applog "ledger/internal/log"
	"ledger/internal/storage"
	"ledger/internal/storage/memory"
)

type Kind string

const (
	SQLite Kind = "sqlite"
	Memory Kind = "memory"
)

// Kinds lists every supported backend.
func Kinds() []Kind { return []Kind{SQLite, Memory} }

func (k Kind) IsValid() bool {
	return k == SQLite || k == Memory
}

// Config selects and locates a record store.
type Config struct {
	Kind         Kind
	SQLiteDBPath string // sqlite only
}

// FromAppConfig extracts the backend settings of the application config.
func FromAppConfig(cfg *config.Config) (Config, error) {
	if cfg == nil {
		return Config{}, errors.New("app config is nil")
	}
	c := Config{Kind: Kind(cfg.DataBackend), SQLiteDBPath: cfg.SQLiteDBPath}
	return c, c.Validate()
}

func (c Config) Validate() error {
	if !c.Kind.IsValid() {
		return fmt.Errorf("unknown backend %q, want one of %v", c.Kind, Kinds())
	}
	if c.Kind == SQLite && c.SQLiteDBPath == "" {
		return errors.New("sqlite backend needs SQLITE_DB_PATH")
	}
	return nil
}

// Opened is an open record store. Close releases it.
type Opened struct {
	Store storage.Store
	Kind  Kind
}

func (o *Opened) Close() error {
	if o == nil || o.Store == nil {
		return nil
	}
	return o.Store.Close()
}

// Open validates c and opens the store it names.
func Open(ctx context.Context, c Config, logger *applog.Logger) (*Opened, error) {
	if logger == nil {
		logger = applog.Discard()
	}
	logger = logger.WithComponent(applog.ComponentBackend)

	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch c.Kind {
	case SQLite:
		repo, err := storage.NewSQLiteRepository(c.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		logger.Info("Record store opened", "backend", c.Kind, "db_path", c.SQLiteDBPath)
		return &Opened{Store: repo, Kind: c.Kind}, nil
	default:
		logger.Warn("Record store opened in memory, records are lost on exit", "backend", c.Kind)
		return &Opened{Store: memory.New(), Kind: c.Kind}, nil
	}
}
