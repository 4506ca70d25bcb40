package report

import (
	"strings"
	"testing"

	"ledger/internal/core"
)

func reportTxs() []core.Transaction {
	return []core.Transaction{
		{ID: "t2", Date: core.NewDate(2024, 2, 1), Time: "12:00", Amount: core.MustMoney("20"), Kind: core.Debit, PaymentMode: core.Online, Counterparty: "Shop", Remarks: "a|b", ReferenceID: "R1"},
		{ID: "t1", Date: core.NewDate(2024, 1, 5), Time: "10:00", Amount: core.MustMoney("500"), Kind: core.Credit, PaymentMode: core.Cash, Counterparty: "Alice", Remarks: "gift"},
	}
}

func TestMarkdownTable(t *testing.T) {
	txs := reportTxs()
	out := Markdown(txs, core.Summarize(txs), Options{Currency: "EUR", Subtitle: "kind=all"})

	for _, want := range []string{
		"# Ledger Report",
		"kind=all",
		"Date", "PaymentMode", "RefId", "User", "Remarks", "Amount",
		"**+€500.00**",
		"-€20.00",
		"a/b",
		"## Totals",
		"€480.00",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "2024-02-01") > strings.Index(out, "2024-01-05") {
		t.Fatalf("rows out of order:\n%s", out)
	}
}

func TestMarkdownEmpty(t *testing.T) {
	out := Markdown(nil, core.Summarize(nil), Options{Title: "Empty", Currency: "USD"})
	if !strings.Contains(out, "# Empty") || !strings.Contains(out, "No transactions match.") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestTerminalRenders(t *testing.T) {
	out, err := Terminal("# Title\n\nbody", 80)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "Title") {
		t.Fatalf("unexpected output: %q", out)
	}
}
