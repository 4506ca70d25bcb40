package core

import (
	"fmt"
	"strings"
)

const (
	AllKinds   KindFilter = "all"
	OnlyCredit KindFilter = "credit"
	OnlyDebit  KindFilter = "debit"

	AllModes   ModeFilter = "all"
	OnlyCash   ModeFilter = "cash"
	OnlyOnline ModeFilter = "online"
)

type (
	KindFilter string
	ModeFilter string

	// Criteria selects transactions. All active predicates are AND-combined;
	// zero values are inactive.
	Criteria struct {
		Start       *Date
		End         *Date
		Kind        KindFilter
		PaymentMode ModeFilter
		Search      string
	}
)

// ParseCriteria builds Criteria from loosely typed inputs such as query
// parameters or command-line flags. Empty strings leave a predicate inactive.
func ParseCriteria(start, end, kind, mode, search string) (Criteria, error) {
	var c Criteria
	if s := strings.TrimSpace(start); s != "" {
		d, err := ParseDate(s)
		if err != nil {
			return Criteria{}, invalid("startDate", fmt.Sprintf("%q is not YYYY-MM-DD", s))
		}
		c.Start = &d
	}
	if s := strings.TrimSpace(end); s != "" {
		d, err := ParseDate(s)
		if err != nil {
			return Criteria{}, invalid("endDate", fmt.Sprintf("%q is not YYYY-MM-DD", s))
		}
		c.End = &d
	}
	switch k := KindFilter(strings.ToLower(strings.TrimSpace(kind))); k {
	case "", AllKinds:
		c.Kind = AllKinds
	case OnlyCredit, OnlyDebit:
		c.Kind = k
	default:
		return Criteria{}, invalid("kind", fmt.Sprintf("%q is not all, credit or debit", kind))
	}
	switch m := ModeFilter(strings.ToLower(strings.TrimSpace(mode))); m {
	case "", AllModes:
		c.PaymentMode = AllModes
	case OnlyCash, OnlyOnline:
		c.PaymentMode = m
	default:
		return Criteria{}, invalid("paymentMode", fmt.Sprintf("%q is not all, cash or online", mode))
	}
	c.Search = search
	return c, nil
}

// Key is a canonical representation of c, equal for equivalent criteria.
func (c Criteria) Key() string {
	var start, end string
	if c.Start != nil {
		start = c.Start.String()
	}
	if c.End != nil {
		end = c.End.String()
	}
	kind, mode := c.Kind, c.PaymentMode
	if kind == "" {
		kind = AllKinds
	}
	if mode == "" {
		mode = AllModes
	}
	return strings.Join([]string{start, end, string(kind), string(mode), strings.ToLower(c.Search)}, "|")
}

// Filter returns the transactions of txs matching c, in their input order.
// It performs no I/O and never modifies txs.
func Filter(txs []Transaction, c Criteria) []Transaction {
	term := strings.ToLower(c.Search)
	out := make([]Transaction, 0, len(txs))
	for _, t := range txs {
		if c.Matches(t, term) {
			out = append(out, t)
		}
	}
	return out
}

// Matches reports whether t satisfies every active predicate of c. term is
// the lower-cased search term.
func (c Criteria) Matches(t Transaction, term string) bool {
	if c.Start != nil && t.Date.Compare(*c.Start) < 0 {
		return false
	}
	if c.End != nil && t.Date.Compare(*c.End) > 0 {
		return false
	}
	if c.Kind != "" && c.Kind != AllKinds && string(c.Kind) != string(t.Kind) {
		return false
	}
	if c.PaymentMode != "" && c.PaymentMode != AllModes && string(c.PaymentMode) != string(t.PaymentMode) {
		return false
	}
	if term != "" && !searchHit(t, term) {
		return false
	}
	return true
}

func searchHit(t Transaction, term string) bool {
	for _, field := range []string{t.Remarks, t.ID, t.ReferenceID, t.Counterparty} {
		if field != "" && strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}
