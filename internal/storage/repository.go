package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"ledger/internal/core"

	_ "modernc.org/sqlite"
)

const (
	upsertTransaction = `
INSERT INTO transactions (id, date, time, kind, payment_mode, amount, counterparty, remarks, reference_id)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    date = excluded.date,
    time = excluded.time,
    kind = excluded.kind,
    payment_mode = excluded.payment_mode,
    amount = excluded.amount,
    counterparty = excluded.counterparty,
    remarks = excluded.remarks,
    reference_id = excluded.reference_id`

	selectTransactions = `
SELECT id, date, time, kind, payment_mode, amount, counterparty, remarks, reference_id
FROM transactions`

	deleteTransaction = `DELETE FROM transactions WHERE id = ?`

	selectConfig = `SELECT key, value FROM config WHERE key = ?`

	upsertConfig = `
INSERT INTO config (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value`
)

// SQLiteRepository is the durable Store backed by an embedded SQLite file.
type SQLiteRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, Wrap("open", fmt.Errorf("create db directory: %w", err))
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, Wrap("open", fmt.Errorf("open sqlite database: %w", err))
	}
	// A single connection serializes writers and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, Wrap("open", fmt.Errorf("ping database: %w", err))
	}

	version, err := Migrate(dbPath)
	if err != nil {
		db.Close()
		return nil, Wrap("open", err)
	}

	logger := slog.Default().With("component", "storage", "backend", "sqlite")
	logger.Debug("Schema up to date", "schema_version", version, "db_path", dbPath)
	return &SQLiteRepository{db: db, logger: logger}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Put implements TransactionWriter
func (r *SQLiteRepository) Put(ctx context.Context, t core.Transaction) error {
	_, err := r.db.ExecContext(ctx, upsertTransaction,
		t.ID,
		t.Date.String(),
		t.Time,
		string(t.Kind),
		string(t.PaymentMode),
		t.Amount.String(),
		t.Counterparty,
		t.Remarks,
		t.ReferenceID,
	)
	if err != nil {
		return Wrap("put", fmt.Errorf("upsert transaction %s: %w", t.ID, err))
	}

	r.logger.DebugContext(ctx, "Transaction upserted",
		"id", t.ID,
		"date", t.Date.String(),
		"kind", t.Kind,
		"amount", t.Amount.String())
	return nil
}

// GetAll implements TransactionReader
func (r *SQLiteRepository) GetAll(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, selectTransactions)
	if err != nil {
		return nil, Wrap("get_all", fmt.Errorf("query transactions: %w", err))
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var (
			t                      core.Transaction
			date, kind, mode, amnt string
		)
		if err := rows.Scan(&t.ID, &date, &t.Time, &kind, &mode, &amnt,
			&t.Counterparty, &t.Remarks, &t.ReferenceID); err != nil {
			return nil, Wrap("get_all", fmt.Errorf("scan transaction: %w", err))
		}
		if t.Date, err = core.ParseDate(date); err != nil {
			return nil, Wrap("get_all", fmt.Errorf("corrupted date for %s: %w", t.ID, err))
		}
		d, err := decimal.NewFromString(amnt)
		if err != nil {
			return nil, Wrap("get_all", fmt.Errorf("corrupted amount for %s: %w", t.ID, err))
		}
		t.Amount = core.NewMoney(d)
		t.Kind = core.Kind(kind)
		t.PaymentMode = core.PaymentMode(mode)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, Wrap("get_all", fmt.Errorf("iterate transactions: %w", err))
	}
	return out, nil
}

// Delete implements TransactionWriter
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, deleteTransaction, id)
	if err != nil {
		return Wrap("delete", fmt.Errorf("delete transaction %s: %w", id, err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		r.logger.DebugContext(ctx, "Delete of unknown transaction ignored", "id", id)
	}
	return nil
}

// GetConfig implements ConfigStore
func (r *SQLiteRepository) GetConfig(ctx context.Context, key string) (core.ConfigEntry, bool, error) {
	var e core.ConfigEntry
	err := r.db.QueryRowContext(ctx, selectConfig, key).Scan(&e.Key, &e.Value)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ConfigEntry{}, false, nil
	}
	if err != nil {
		return core.ConfigEntry{}, false, Wrap("get_config", fmt.Errorf("get config %s: %w", key, err))
	}
	return e, true, nil
}

// SetConfig implements ConfigStore
func (r *SQLiteRepository) SetConfig(ctx context.Context, e core.ConfigEntry) error {
	if _, err := r.db.ExecContext(ctx, upsertConfig, e.Key, e.Value); err != nil {
		return Wrap("set_config", fmt.Errorf("set config %s: %w", e.Key, err))
	}
	r.logger.InfoContext(ctx, "Config entry saved", "key", e.Key)
	return nil
}
