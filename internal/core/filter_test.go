package core

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func ids(txs []Transaction) []string {
	out := make([]string, len(txs))
	for i, t := range txs {
		out[i] = t.ID
	}
	return out
}

func sample() []Transaction {
	return []Transaction{
		{ID: "t3", Date: NewDate(2024, 3, 1), Time: "09:00", Amount: MustMoney("20"), Kind: Debit, PaymentMode: Online, Counterparty: "Grocer", Remarks: "veg", ReferenceID: "UPI-77"},
		{ID: "t2", Date: NewDate(2024, 2, 10), Time: "12:30", Amount: MustMoney("75.5"), Kind: Debit, PaymentMode: Cash, Counterparty: "Bob", Remarks: "lunch"},
		{ID: "t1", Date: NewDate(2024, 1, 5), Time: "10:00", Amount: MustMoney("500"), Kind: Credit, PaymentMode: Cash, Counterparty: "Alice", Remarks: "gift"},
	}
}

func mustCriteria(t *testing.T, start, end, kind, mode, search string) Criteria {
	t.Helper()
	c, err := ParseCriteria(start, end, kind, mode, search)
	if err != nil {
		t.Fatalf("criteria: %v", err)
	}
	return c
}

func TestFilterPredicates(t *testing.T) {
	txs := sample()
	cases := []struct {
		name                           string
		start, end, kind, mode, search string
		want                           []string
	}{
		{"no criteria", "", "", "", "", "", []string{"t3", "t2", "t1"}},
		{"credit only", "", "", "credit", "", "", []string{"t1"}},
		{"debit only", "", "", "DEBIT", "", "", []string{"t3", "t2"}},
		{"cash only", "", "", "", "cash", "", []string{"t2", "t1"}},
		{"online only", "", "", "all", "online", "", []string{"t3"}},
		{"start inclusive", "2024-02-10", "", "", "", "", []string{"t3", "t2"}},
		{"end inclusive", "", "2024-02-10", "", "", "", []string{"t2", "t1"}},
		{"range", "2024-01-06", "2024-02-29", "", "", "", []string{"t2"}},
		{"search counterparty case-insensitive", "", "", "", "", "alice", []string{"t1"}},
		{"search remarks", "", "", "", "", "LUN", []string{"t2"}},
		{"search id", "", "", "", "", "t3", []string{"t3"}},
		{"search reference", "", "", "", "", "upi", []string{"t3"}},
		{"combined", "2024-01-01", "2024-12-31", "debit", "cash", "bob", []string{"t2"}},
		{"no match", "", "", "credit", "online", "", []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Filter(txs, mustCriteria(t, tc.start, tc.end, tc.kind, tc.mode, tc.search))
			if diff := cmp.Diff(tc.want, ids(got)); diff != "" {
				t.Fatalf("filter mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFilterScenarioCreditT1(t *testing.T) {
	t1 := sample()[2]
	got := Filter([]Transaction{t1}, Criteria{Kind: OnlyCredit})
	if len(got) != 1 || got[0].ID != "t1" {
		t.Fatalf("expected [t1], got %v", ids(got))
	}
	s := Summarize(got)
	if !s.Credit.Equal(MustMoney("500")) || !s.Debit.IsZero() || !s.Balance.Equal(MustMoney("500")) {
		t.Fatalf("unexpected summary %+v", s)
	}
}

func TestFilterEmptyFieldsNeverMatch(t *testing.T) {
	tx := sample()[1] // no reference id
	if got := Filter([]Transaction{tx}, Criteria{Search: "upi"}); len(got) != 0 {
		t.Fatalf("expected no match, got %v", ids(got))
	}
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	txs := sample()
	before := ids(txs)
	_ = Filter(txs, Criteria{Kind: OnlyDebit})
	if diff := cmp.Diff(before, ids(txs)); diff != "" {
		t.Fatalf("input changed:\n%s", diff)
	}
}

func TestParseCriteriaRejectsUnknownValues(t *testing.T) {
	bad := [][5]string{
		{"2024-13-01", "", "", "", ""},
		{"", "yesterday", "", "", ""},
		{"", "", "refund", "", ""},
		{"", "", "", "card", ""},
	}
	for _, b := range bad {
		if _, err := ParseCriteria(b[0], b[1], b[2], b[3], b[4]); !IsValidationError(err) {
			t.Fatalf("%v: expected validation error, got %v", b, err)
		}
	}
}

func TestCriteriaKey(t *testing.T) {
	a := mustCriteria(t, "2024-01-01", "", "", "ALL", "Alice")
	b := Criteria{Start: &[]Date{NewDate(2024, 1, 1)}[0], Search: "alice"}
	if a.Key() != b.Key() {
		t.Fatalf("expected equal keys: %q vs %q", a.Key(), b.Key())
	}
	c := mustCriteria(t, "2024-01-01", "", "credit", "", "Alice")
	if a.Key() == c.Key() {
		t.Fatalf("expected different keys")
	}
}

// Every output is an order-preserving subsequence of the input whose
// elements satisfy all active predicates, and no excluded element does.
func TestFilterProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	kinds := []Kind{Credit, Debit}
	modes := []PaymentMode{Cash, Online}
	names := []string{"Alice", "bob", "Carol", "", "ALICE & co"}
	kindFilters := []string{"all", "credit", "debit"}
	modeFilters := []string{"all", "cash", "online"}
	searches := []string{"", "ali", "B", "ref", "zzz"}

	for round := 0; round < 200; round++ {
		n := rng.Intn(25)
		txs := make([]Transaction, n)
		for i := range txs {
			txs[i] = Transaction{
				ID:           fmt.Sprintf("id-%d-%d", round, i),
				Date:         NewDate(2024, 1+rng.Intn(12), 1+rng.Intn(28)),
				Time:         "10:00",
				Amount:       MustMoney(fmt.Sprintf("%d.%02d", 1+rng.Intn(1000), rng.Intn(100))),
				Kind:         kinds[rng.Intn(2)],
				PaymentMode:  modes[rng.Intn(2)],
				Counterparty: names[rng.Intn(len(names))],
				Remarks:      "r",
			}
			if rng.Intn(2) == 0 {
				txs[i].ReferenceID = fmt.Sprintf("REF%d", i)
			}
		}
		var start, end string
		if rng.Intn(2) == 0 {
			start = NewDate(2024, 1+rng.Intn(12), 1).String()
		}
		if rng.Intn(2) == 0 {
			end = NewDate(2024, 1+rng.Intn(12), 28).String()
		}
		c := mustCriteria(t, start, end,
			kindFilters[rng.Intn(3)], modeFilters[rng.Intn(3)], searches[rng.Intn(len(searches))])

		got := Filter(txs, c)
		term := strings.ToLower(c.Search)

		j := 0
		for _, tx := range txs {
			matched := c.Matches(tx, term)
			if j < len(got) && got[j].ID == tx.ID {
				if !matched {
					t.Fatalf("round %d: %s kept but fails predicates", round, tx.ID)
				}
				j++
				continue
			}
			if matched {
				t.Fatalf("round %d: %s matches but was dropped", round, tx.ID)
			}
		}
		if j != len(got) {
			t.Fatalf("round %d: output is not a subsequence of the input", round)
		}
	}
}
