// Package cache holds the in-memory working set of transactions and the
// small TTL caches built on top of it.
package cache

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"ledger/internal/core"
	"ledger/internal/storage"
)

// Snapshot is an immutable view of every stored transaction. Callers must
// not modify the slices it exposes.
type Snapshot struct {
	// Transactions in canonical order: date descending, then time
	// descending, then id ascending.
	Transactions []core.Transaction
	// Counterparties lists distinct non-empty counterparty values.
	Counterparties []string
	Version        uint64
	LoadedAt       time.Time
	// Stale is set when the last reload failed; the snapshot may no longer
	// match durable state.
	Stale bool
}

// WorkingSet keeps the authoritative in-memory list of transactions in sync
// with the store by full reload.
type WorkingSet struct {
	reader  storage.TransactionReader
	mu      sync.Mutex // serializes publishers
	current atomic.Pointer[Snapshot]
	version uint64
	now     func() time.Time
}

func NewWorkingSet(reader storage.TransactionReader) *WorkingSet {
	ws := &WorkingSet{reader: reader, now: time.Now}
	ws.current.Store(&Snapshot{})
	return ws
}

// Snapshot returns the current snapshot. Before the first reload it is
// empty with version 0.
func (ws *WorkingSet) Snapshot() *Snapshot {
	return ws.current.Load()
}

// Reload re-reads every transaction from the store and publishes a fresh
// snapshot. On failure the previous snapshot stays published, marked stale.
func (ws *WorkingSet) Reload(ctx context.Context) (*Snapshot, error) {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	txs, err := ws.reader.GetAll(ctx)
	if err != nil {
		prev := *ws.current.Load()
		prev.Stale = true
		ws.current.Store(&prev)
		return nil, fmt.Errorf("reload working set: %w", err)
	}

	SortCanonical(txs)
	return ws.publish(txs, false), nil
}

// Remove drops id from the working set without reloading. Used after the
// store has confirmed a delete.
func (ws *WorkingSet) Remove(id string) *Snapshot {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	prev := ws.current.Load()
	txs := make([]core.Transaction, 0, len(prev.Transactions))
	for _, t := range prev.Transactions {
		if t.ID != id {
			txs = append(txs, t)
		}
	}
	if len(txs) == len(prev.Transactions) {
		return prev
	}
	return ws.publish(txs, prev.Stale)
}

func (ws *WorkingSet) publish(txs []core.Transaction, stale bool) *Snapshot {
	ws.version++
	snap := &Snapshot{
		Transactions:   txs,
		Counterparties: Counterparties(txs),
		Version:        ws.version,
		LoadedAt:       ws.now(),
		Stale:          stale,
	}
	ws.current.Store(snap)
	return snap
}

// SortCanonical orders txs by date descending. Equal dates fall back to time
// descending and then id ascending, so the result never depends on the order
// the store returned records in.
func SortCanonical(txs []core.Transaction) {
	slices.SortStableFunc(txs, func(a, b core.Transaction) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		if c := strings.Compare(b.Time, a.Time); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

// Counterparties returns the distinct non-empty counterparties of txs,
// sorted case-insensitively.
func Counterparties(txs []core.Transaction) []string {
	seen := make(map[string]struct{}, len(txs))
	out := make([]string, 0)
	for _, t := range txs {
		v := strings.TrimSpace(t.Counterparty)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b string) int {
		if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	return out
}
