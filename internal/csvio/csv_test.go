package csvio

import (
	"bytes"
	"strings"
	"testing"

	"ledger/internal/core"
)

func TestWriteTransactionsQuotesEveryField(t *testing.T) {
	txs := []core.Transaction{{
		ID:           "t1",
		Date:         core.NewDate(2024, 1, 5),
		Time:         "10:00",
		Amount:       core.MustMoney("500"),
		Kind:         core.Credit,
		PaymentMode:  core.Cash,
		Counterparty: "Alice",
		Remarks:      `say "hi", ok`,
	}}
	var buf bytes.Buffer
	if err := WriteTransactions(&buf, txs); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := `"id","date","time","paymentMode","kind","amount","counterparty","remarks","referenceId"` + "\n" +
		`"t1","2024-01-05","10:00","cash","credit","500","Alice","say ""hi"", ok",""` + "\n"
	if buf.String() != want {
		t.Fatalf("unexpected csv:\n%s", buf.String())
	}
}

func TestReadRowsHeaderKeyed(t *testing.T) {
	in := "\xef\xbb\xbf remarks ,id,extra,amount\n" +
		"gift,t1,ignored,500\n" +
		"\n" +
		"short,t2\n"
	rows, err := ReadRows(strings.NewReader(in))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Get("id") != "t1" || rows[0].Get("remarks") != "gift" || rows[0].Get("amount") != "500" {
		t.Fatalf("row 0: %+v", rows[0].Fields)
	}
	if rows[0].Line != 2 {
		t.Fatalf("row 0 line %d", rows[0].Line)
	}
	if rows[1].Get("amount") != "" || rows[1].Get("id") != "t2" {
		t.Fatalf("row 1: %+v", rows[1].Fields)
	}
	if rows[1].Line != 4 {
		t.Fatalf("row 1 line %d", rows[1].Line)
	}
}

func TestReadRowsEmptyInput(t *testing.T) {
	rows, err := ReadRows(strings.NewReader(""))
	if err != nil || len(rows) != 0 {
		t.Fatalf("rows=%v err=%v", rows, err)
	}
}

func TestWriteThenReadRoundTrip(t *testing.T) {
	txs := []core.Transaction{{
		ID: "t9", Date: core.NewDate(2024, 6, 1), Time: "08:15", Amount: core.MustMoney("12.345"),
		Kind: core.Debit, PaymentMode: core.Online, Counterparty: "Shop, Inc.", Remarks: "line1\nline2", ReferenceID: "R-1",
	}}
	var buf bytes.Buffer
	if err := WriteTransactions(&buf, txs); err != nil {
		t.Fatal(err)
	}
	rows, err := ReadRows(&buf)
	if err != nil || len(rows) != 1 {
		t.Fatalf("rows=%v err=%v", rows, err)
	}
	r := rows[0]
	for col, want := range map[string]string{
		"id": "t9", "date": "2024-06-01", "time": "08:15", "paymentMode": "online", "kind": "debit",
		"amount": "12.345", "counterparty": "Shop, Inc.", "remarks": "line1\nline2", "referenceId": "R-1",
	} {
		if got := r.Get(col); got != want {
			t.Fatalf("%s: got %q want %q", col, got, want)
		}
	}
}
