package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ledger/internal/cache"
	"ledger/internal/core"
	"ledger/internal/csvio"
	applog "ledger/internal/log"
	"ledger/internal/report"
	"ledger/internal/storage"
)

// Draft is a manually entered transaction before it has an id.
type Draft struct {
	Date         string `json:"date"`
	Time         string `json:"time"`
	Amount       string `json:"amount"`
	Kind         string `json:"kind"`
	PaymentMode  string `json:"paymentMode"`
	Counterparty string `json:"counterparty"`
	Remarks      string `json:"remarks"`
	ReferenceID  string `json:"referenceId"`
}

// View is a derived, never persisted, view of the working set.
type View struct {
	Transactions []core.Transaction
	Summary      core.Summary
	Version      uint64
	Stale        bool
}

// Options configures a Ledger.
type Options struct {
	Currency      string
	ImportWorkers int
	ViewCacheSize int
	Logger        *applog.Logger
}

// Ledger is the action boundary: every mutation goes through the store and
// is followed by a working set refresh. Mutations are serialized.
type Ledger struct {
	store      storage.Store
	ws         *cache.WorkingSet
	reconciler *Reconciler
	views      *cache.LRUCache[View]
	currency   string
	logger     *applog.Logger
	mu         sync.Mutex
	newID      func() string
	now        func() time.Time
}

func NewLedger(store storage.Store, opts Options) *Ledger {
	logger := opts.Logger
	if logger == nil {
		logger = applog.Discard()
	}
	size := opts.ViewCacheSize
	if size <= 0 {
		size = 64
	}
	currency := opts.Currency
	if currency == "" {
		currency = "INR"
	}
	return &Ledger{
		store:      store,
		ws:         cache.NewWorkingSet(store),
		reconciler: NewReconciler(store, opts.ImportWorkers, logger),
		views:      cache.NewLRUCache[View](size, time.Hour),
		currency:   currency,
		logger:     logger.WithComponent(applog.ComponentLedger),
		newID:      uuid.NewString,
		now:        time.Now,
	}
}

// Views exposes the view memo so callers can register it for periodic
// expiry.
func (l *Ledger) Views() *cache.LRUCache[View] { return l.views }

// Currency is the ISO code used for display.
func (l *Ledger) Currency() string { return l.currency }

// Open loads the working set. Called once the access gate has passed.
func (l *Ledger) Open(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reload(ctx)
}

func (l *Ledger) reload(ctx context.Context) error {
	snap, err := l.ws.Reload(ctx)
	if err != nil {
		l.logger.ErrorContext(ctx, "Working set reload failed",
			applog.NewFields().WithOperation(applog.OpReload).WithError(err).WithErrorType(applog.ErrorTypeDatabase).ToSlice()...)
		return err
	}
	l.views.Purge()
	l.logger.DebugContext(ctx, "Working set reloaded",
		applog.FieldVersion, snap.Version,
		applog.FieldCount, len(snap.Transactions))
	return nil
}

// Build turns a draft into a validated transaction with a fresh id.
func (l *Ledger) Build(d Draft) (core.Transaction, error) {
	return l.build(l.newID(), d)
}

func (l *Ledger) build(id string, d Draft) (core.Transaction, error) {
	date, err := core.ParseDate(d.Date)
	if err != nil {
		return core.Transaction{}, err
	}
	amount, err := core.ParseAmount(d.Amount)
	if err != nil {
		return core.Transaction{}, &core.ValidationError{Field: "amount", Reason: "must be a number greater than zero"}
	}
	kind, err := core.ParseKind(d.Kind)
	if err != nil {
		return core.Transaction{}, err
	}
	mode, err := core.ParsePaymentMode(d.PaymentMode)
	if err != nil {
		return core.Transaction{}, err
	}
	clock, err := core.ParseTime(d.Time)
	if err != nil {
		return core.Transaction{}, err
	}
	t := core.Transaction{
		ID:           id,
		Date:         date,
		Time:         clock,
		Amount:       amount,
		Kind:         kind,
		PaymentMode:  mode,
		Counterparty: strings.TrimSpace(d.Counterparty),
		Remarks:      strings.TrimSpace(d.Remarks),
		ReferenceID:  strings.TrimSpace(d.ReferenceID),
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

// Add validates d, stores it under a new id and reloads the working set.
func (l *Ledger) Add(ctx context.Context, d Draft) (core.Transaction, error) {
	t, err := l.Build(d)
	if err != nil {
		return core.Transaction{}, err
	}
	if err := l.save(ctx, t, applog.OpCreate); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

// Update replaces the whole record stored under id.
func (l *Ledger) Update(ctx context.Context, id string, d Draft) (core.Transaction, error) {
	if strings.TrimSpace(id) == "" {
		return core.Transaction{}, &core.ValidationError{Field: "id", Reason: "required"}
	}
	t, err := l.build(id, d)
	if err != nil {
		return core.Transaction{}, err
	}
	if err := l.save(ctx, t, applog.OpUpdate); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

func (l *Ledger) save(ctx context.Context, t core.Transaction, op string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	fields := applog.NewFields().WithOperation(op).
		WithTransaction(t.ID, t.Date.String(), string(t.Kind), string(t.PaymentMode), t.Amount.String(), t.Counterparty)

	if err := l.store.Put(ctx, t); err != nil {
		l.logger.ErrorContext(ctx, "Failed to save transaction",
			fields.WithError(err).WithErrorType(applog.ErrorTypeDatabase).ToSlice()...)
		return fmt.Errorf("save transaction: %w", err)
	}
	if err := l.reload(ctx); err != nil {
		return err
	}
	l.logger.InfoContext(ctx, "Transaction saved", fields.ToSlice()...)
	return nil
}

// Delete removes id from the store, then drops it from the working set
// without a reload.
func (l *Ledger) Delete(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.store.Delete(ctx, id); err != nil {
		l.logger.ErrorContext(ctx, "Failed to delete transaction",
			applog.FieldTxID, id, applog.FieldError, err.Error())
		return fmt.Errorf("delete transaction: %w", err)
	}
	snap := l.ws.Remove(id)
	l.views.Purge()
	l.logger.InfoContext(ctx, "Transaction deleted",
		applog.FieldOperation, applog.OpDelete,
		applog.FieldTxID, id,
		applog.FieldVersion, snap.Version)
	return nil
}

// Import reconciles rows into the store and reloads the working set once.
// Store write failures are reported and joined into the error; the reload
// still runs.
func (l *Ledger) Import(ctx context.Context, rows []csvio.Row) (ImportReport, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rep, writeErr := l.reconciler.Apply(ctx, rows)
	reloadErr := l.reload(context.WithoutCancel(ctx))
	if writeErr != nil {
		writeErr = fmt.Errorf("import: %d row(s) failed: %w", len(rep.Failed), writeErr)
	}
	return rep, errors.Join(writeErr, reloadErr)
}

// ImportCSV parses r and imports its rows.
func (l *Ledger) ImportCSV(ctx context.Context, r io.Reader) (ImportReport, error) {
	rows, err := csvio.ReadRows(r)
	if err != nil {
		return ImportReport{}, fmt.Errorf("parse csv: %w", err)
	}
	return l.Import(ctx, rows)
}

// Snapshot returns the current working set.
func (l *Ledger) Snapshot() *cache.Snapshot {
	return l.ws.Snapshot()
}

// Counterparties returns the suggestion list for counterparty input.
func (l *Ledger) Counterparties() []string {
	return l.ws.Snapshot().Counterparties
}

// View filters the working set with c and totals the result.
func (l *Ledger) View(c core.Criteria) View {
	snap := l.ws.Snapshot()
	key := strconv.FormatUint(snap.Version, 10) + "|" + c.Key()
	if v, ok := l.views.Get(key); ok && v.Stale == snap.Stale {
		return v
	}
	txs := core.Filter(snap.Transactions, c)
	v := View{
		Transactions: txs,
		Summary:      core.Summarize(txs),
		Version:      snap.Version,
		Stale:        snap.Stale,
	}
	l.views.Set(key, v)
	return v
}

// ExportCSV writes the transactions matching c in canonical order.
func (l *Ledger) ExportCSV(w io.Writer, c core.Criteria) error {
	v := l.View(c)
	if err := csvio.WriteTransactions(w, v.Transactions); err != nil {
		return fmt.Errorf("export csv: %w", err)
	}
	l.logger.Debug("Export written", applog.FieldOperation, applog.OpExport, applog.FieldCount, len(v.Transactions))
	return nil
}

// Report renders the transactions matching c as markdown.
func (l *Ledger) Report(c core.Criteria) string {
	v := l.View(c)
	return report.Markdown(v.Transactions, v.Summary, report.Options{
		Currency: l.currency,
		Subtitle: describe(c, l.now()),
	})
}

func describe(c core.Criteria, at time.Time) string {
	parts := []string{"Generated " + at.Format("2006-01-02 15:04")}
	if c.Start != nil {
		parts = append(parts, "from "+c.Start.String())
	}
	if c.End != nil {
		parts = append(parts, "to "+c.End.String())
	}
	if c.Kind != "" && c.Kind != core.AllKinds {
		parts = append(parts, "kind "+string(c.Kind))
	}
	if c.PaymentMode != "" && c.PaymentMode != core.AllModes {
		parts = append(parts, "mode "+string(c.PaymentMode))
	}
	if c.Search != "" {
		parts = append(parts, fmt.Sprintf("matching %q", c.Search))
	}
	return strings.Join(parts, ", ")
}
