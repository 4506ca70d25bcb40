package core

import (
	"fmt"
	"math/rand"
	"testing"
)

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if !s.Credit.IsZero() || !s.Debit.IsZero() || !s.Balance.IsZero() || s.Count != 0 {
		t.Fatalf("expected zeros, got %+v", s)
	}
}

func TestSummarizeSample(t *testing.T) {
	s := Summarize(sample())
	if !s.Credit.Equal(MustMoney("500")) {
		t.Fatalf("credit %s", s.Credit)
	}
	if !s.Debit.Equal(MustMoney("95.5")) {
		t.Fatalf("debit %s", s.Debit)
	}
	if !s.Balance.Equal(MustMoney("404.5")) {
		t.Fatalf("balance %s", s.Balance)
	}
	if s.Count != 3 {
		t.Fatalf("count %d", s.Count)
	}
}

func TestSummarizeNegativeBalance(t *testing.T) {
	s := Summarize(sample()[:2])
	if !s.Balance.IsNegative() || !s.Balance.Equal(MustMoney("95.5").Neg()) {
		t.Fatalf("balance %s", s.Balance)
	}
}

func TestSummarizeBalanceIdentity(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for round := 0; round < 100; round++ {
		txs := make([]Transaction, rng.Intn(40))
		for i := range txs {
			k := Credit
			if rng.Intn(2) == 0 {
				k = Debit
			}
			txs[i] = Transaction{Kind: k, Amount: MustMoney(fmt.Sprintf("%d.%03d", rng.Intn(10000), 1+rng.Intn(999)))}
		}
		s := Summarize(txs)
		if !s.Credit.Sub(s.Debit).Equal(s.Balance) {
			t.Fatalf("round %d: %s - %s != %s", round, s.Credit, s.Debit, s.Balance)
		}
	}
}
