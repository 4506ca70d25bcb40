package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"ledger/internal/core"
	"ledger/internal/csvio"
	applog "ledger/internal/log"
	"ledger/internal/storage"
)

// requiredColumns must be non-blank for an import row to be considered.
// referenceId is deliberately absent, even for online payments.
var requiredColumns = []string{"id", "date", "time", "kind", "paymentMode", "amount", "counterparty", "remarks"}

// SkippedRow explains why an input row was not persisted.
type SkippedRow struct {
	Line   int    `json:"line"`
	ID     string `json:"id,omitempty"`
	Reason string `json:"reason"`
}

// ImportReport summarizes one import batch. The batch never aborts on a bad
// row; Skipped lists rows rejected before any write, Failed lists rows whose
// store write failed.
type ImportReport struct {
	Total    int          `json:"total"`
	Imported int          `json:"imported"`
	Skipped  []SkippedRow `json:"skipped"`
	Failed   []SkippedRow `json:"failed"`
}

// Reconciler validates loosely typed rows and upserts the valid ones.
type Reconciler struct {
	writer  storage.TransactionWriter
	workers int
	logger  *applog.Logger
}

// NewReconciler returns a reconciler writing through w. workers <= 1 writes
// rows sequentially in input order.
func NewReconciler(w storage.TransactionWriter, workers int, logger *applog.Logger) *Reconciler {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = applog.Discard()
	}
	return &Reconciler{writer: w, workers: workers, logger: logger.WithComponent(applog.ComponentImport)}
}

// RowToTransaction applies the import row policy. It returns a reason when
// the row must be skipped.
func RowToTransaction(row csvio.Row) (core.Transaction, string) {
	for _, col := range requiredColumns {
		if row.Get(col) == "" {
			return core.Transaction{}, "missing " + col
		}
	}
	kind, err := core.ParseKind(row.Get("kind"))
	if err != nil {
		return core.Transaction{}, err.Error()
	}
	mode, err := core.ParsePaymentMode(row.Get("paymentMode"))
	if err != nil {
		return core.Transaction{}, err.Error()
	}
	amount, err := core.ParseAmount(row.Get("amount"))
	if err != nil {
		return core.Transaction{}, fmt.Sprintf("invalid amount %q", row.Get("amount"))
	}
	date, err := core.ParseDate(row.Get("date"))
	if err != nil {
		return core.Transaction{}, err.Error()
	}
	clock, err := core.ParseTime(row.Get("time"))
	if err != nil {
		return core.Transaction{}, err.Error()
	}
	return core.Transaction{
		ID:           row.Get("id"),
		Date:         date,
		Time:         clock,
		Amount:       amount,
		Kind:         kind,
		PaymentMode:  mode,
		Counterparty: row.Get("counterparty"),
		Remarks:      row.Get("remarks"),
		ReferenceID:  row.Get("referenceId"),
	}, ""
}

// Apply writes every valid row and reports the outcome. The returned error
// joins the store failures, if any; the report is complete either way.
func (r *Reconciler) Apply(ctx context.Context, rows []csvio.Row) (ImportReport, error) {
	report := ImportReport{Total: len(rows), Skipped: []SkippedRow{}, Failed: []SkippedRow{}}

	type pending struct {
		line int
		tx   core.Transaction
	}
	var valid []pending
	for _, row := range rows {
		tx, reason := RowToTransaction(row)
		if reason != "" {
			report.Skipped = append(report.Skipped, SkippedRow{Line: row.Line, ID: row.Get("id"), Reason: reason})
			r.logger.DebugContext(ctx, "Import row skipped", "line", row.Line, "reason", reason)
			continue
		}
		valid = append(valid, pending{line: row.Line, tx: tx})
	}

	// A later row for the same id wins, as it would when writing in order.
	// Dropping the earlier ones keeps concurrent writes independent.
	last := make(map[string]int, len(valid))
	for i, p := range valid {
		last[p.tx.ID] = i
	}
	writes := make([]pending, 0, len(last))
	for i, p := range valid {
		if j := last[p.tx.ID]; j != i {
			reason := fmt.Sprintf("superseded by line %d", valid[j].line)
			report.Skipped = append(report.Skipped, SkippedRow{Line: p.line, ID: p.tx.ID, Reason: reason})
			r.logger.DebugContext(ctx, "Import row skipped", "line", p.line, "reason", reason)
			continue
		}
		writes = append(writes, p)
	}
	slices.SortFunc(report.Skipped, func(a, b SkippedRow) int { return a.Line - b.Line })

	var (
		mu   sync.Mutex
		errs []error
	)
	record := func(p pending, err error) {
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			report.Failed = append(report.Failed, SkippedRow{Line: p.line, ID: p.tx.ID, Reason: err.Error()})
			errs = append(errs, fmt.Errorf("line %d: %w", p.line, err))
			return
		}
		report.Imported++
	}

	if r.workers == 1 {
		for _, p := range writes {
			if err := ctx.Err(); err != nil {
				record(p, err)
				continue
			}
			record(p, r.writer.Put(ctx, p.tx))
		}
	} else {
		var g errgroup.Group
		g.SetLimit(r.workers)
		for _, p := range writes {
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					record(p, err)
					return nil
				}
				record(p, r.writer.Put(ctx, p.tx))
				return nil
			})
		}
		_ = g.Wait()
	}

	r.logger.InfoContext(ctx, "Import batch applied",
		applog.FieldCount, report.Imported,
		applog.FieldSkipped, len(report.Skipped),
		applog.FieldFailed, len(report.Failed),
		"workers", r.workers)

	return report, errors.Join(errs...)
}
