package storage

import (
	"context"
	"errors"
	"fmt"

	"ledger/internal/core"
)

// Ports for the durable record store.
type (
	// TransactionReader returns every stored transaction. No ordering is
	// guaranteed.
	TransactionReader interface {
		GetAll(ctx context.Context) ([]core.Transaction, error)
	}

	// TransactionWriter upserts and deletes transactions by id.
	TransactionWriter interface {
		// Put inserts t or replaces the record sharing its id.
		Put(ctx context.Context, t core.Transaction) error
		// Delete removes the record if present. Unknown ids are not an error.
		Delete(ctx context.Context, id string) error
	}

	// ConfigStore holds key/value application settings.
	ConfigStore interface {
		GetConfig(ctx context.Context, key string) (entry core.ConfigEntry, found bool, err error)
		SetConfig(ctx context.Context, entry core.ConfigEntry) error
	}

	// Store is the full record store contract.
	Store interface {
		TransactionReader
		TransactionWriter
		ConfigStore
		Close() error
	}
)

// Error reports that the underlying store was unavailable or rejected an
// operation. It is not retried within the triggering action, and callers
// must not assume in-memory state still matches durable state.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsStorageError reports whether err carries a *Error.
func IsStorageError(err error) bool {
	var se *Error
	return errors.As(err, &se)
}

// Wrap returns err as a *Error for op, or nil when err is nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}
