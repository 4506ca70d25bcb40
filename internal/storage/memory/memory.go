package memory

import (
	"context"
	"errors"
	"sync"

	"ledger/internal/core"
	"ledger/internal/storage"
)

// ErrInjected is returned by operations armed with FailNext.
var ErrInjected = errors.New("injected storage failure")

// Store is a volatile Store. Records live only as long as the process.
type Store struct {
	mu     sync.Mutex
	order  []string // insertion order, stands in for storage-read order
	txs    map[string]core.Transaction
	config map[string]core.ConfigEntry
	fail   map[string]int
	puts   int
	closed bool
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		txs:    make(map[string]core.Transaction),
		config: make(map[string]core.ConfigEntry),
		fail:   make(map[string]int),
	}
}

// FailNext makes the next n calls of op ("put", "get_all", "delete",
// "get_config", "set_config") fail with a storage error.
func (s *Store) FailNext(op string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[op] = n
}

// Puts returns how many successful Put calls the store has served.
func (s *Store) Puts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts
}

func (s *Store) check(op string) error {
	if s.closed {
		return storage.Wrap(op, errors.New("store closed"))
	}
	if s.fail[op] > 0 {
		s.fail[op]--
		return storage.Wrap(op, ErrInjected)
	}
	return nil
}

func (s *Store) Put(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("put"); err != nil {
		return err
	}
	if _, ok := s.txs[t.ID]; !ok {
		s.order = append(s.order, t.ID)
	}
	s.txs[t.ID] = t
	s.puts++
	return nil
}

func (s *Store) GetAll(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("get_all"); err != nil {
		return nil, err
	}
	out := make([]core.Transaction, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.txs[id])
	}
	return out, nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("delete"); err != nil {
		return err
	}
	if _, ok := s.txs[id]; !ok {
		return nil
	}
	delete(s.txs, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Store) GetConfig(_ context.Context, key string) (core.ConfigEntry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("get_config"); err != nil {
		return core.ConfigEntry{}, false, err
	}
	e, ok := s.config[key]
	return e, ok, nil
}

func (s *Store) SetConfig(_ context.Context, e core.ConfigEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check("set_config"); err != nil {
		return err
	}
	s.config[e.Key] = e
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
