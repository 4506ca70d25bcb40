// Package csvio reads header-keyed CSV rows for import and writes the
// canonical ledger CSV export.
package csvio

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"ledger/internal/core"
)

// Columns is the export column order. Import matches by header name.
var Columns = []string{"id", "date", "time", "paymentMode", "kind", "amount", "counterparty", "remarks", "referenceId"}

// Row is one loosely typed input row keyed by header name.
type Row struct {
	Line   int
	Fields map[string]string
}

// Get returns the trimmed value of column, or "" when absent.
func (r Row) Get(column string) string {
	return strings.TrimSpace(r.Fields[column])
}

// ReadRows parses CSV text whose first record is a header. Unknown columns
// are kept but ignored by consumers; short rows simply lack trailing fields.
func ReadRows(r io.Reader) ([]Row, error) {
	br := bufio.NewReader(r)
	if b, err := br.Peek(3); err == nil && string(b) == "\xef\xbb\xbf" {
		_, _ = br.Discard(3)
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []Row
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return rows, fmt.Errorf("read record: %w", err)
		}
		line, _ := cr.FieldPos(0)
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}
		fields := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(record) && name != "" {
				fields[name] = record[i]
			}
		}
		rows = append(rows, Row{Line: line, Fields: fields})
	}
	return rows, nil
}

// WriteTransactions writes the header and one row per transaction, every
// field double-quoted.
func WriteTransactions(w io.Writer, txs []core.Transaction) error {
	bw := bufio.NewWriter(w)
	if err := writeRecord(bw, Columns); err != nil {
		return err
	}
	for _, t := range txs {
		err := writeRecord(bw, []string{
			t.ID,
			t.Date.String(),
			t.Time,
			string(t.PaymentMode),
			string(t.Kind),
			t.Amount.String(),
			t.Counterparty,
			t.Remarks,
			t.ReferenceID,
		})
		if err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// encoding/csv only quotes when needed; the export format quotes always.
func writeRecord(w *bufio.Writer, fields []string) error {
	for i, f := range fields {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return fmt.Errorf("write csv: %w", err)
			}
		}
		if _, err := w.WriteString(`"` + strings.ReplaceAll(f, `"`, `""`) + `"`); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}
	if _, err := w.WriteString("\n"); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}
