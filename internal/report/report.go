// Package report renders the filtered transactions as a read-only tabular
// report: a markdown document, optionally styled for the terminal.
package report

import (
	"bytes"
	"fmt"

	"github.com/charmbracelet/glamour"
	md "github.com/nao1215/markdown"

	"ledger/internal/core"
)

// Header is the report column order.
var Header = []string{"Date", "Time", "PaymentMode", "Kind", "RefId", "User", "Remarks", "Amount"}

// Options tunes the report.
type Options struct {
	Title    string
	Currency string // ISO code used for amount display
	Subtitle string // e.g. a description of the active criteria
}

// Markdown renders txs and their totals. Credit amounts are bold with a
// leading "+", debit amounts carry a leading "-".
func Markdown(txs []core.Transaction, totals core.Summary, opts Options) string {
	title := opts.Title
	if title == "" {
		title = "Ledger Report"
	}

	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1(title)
	if opts.Subtitle != "" {
		doc.PlainText(opts.Subtitle)
	}

	rows := make([][]string, 0, len(txs))
	for _, t := range txs {
		rows = append(rows, []string{
			t.Date.String(),
			t.Time,
			string(t.PaymentMode),
			string(t.Kind),
			cell(t.ReferenceID),
			cell(t.Counterparty),
			cell(t.Remarks),
			SignedAmount(t, opts.Currency),
		})
	}
	if len(rows) == 0 {
		doc.PlainText("No transactions match.")
	} else {
		doc.Table(md.TableSet{Header: Header, Rows: rows})
	}

	doc.H2("Totals")
	doc.Table(md.TableSet{
		Header: []string{"Credit", "Debit", "Balance", "Count"},
		Rows: [][]string{{
			totals.Credit.Format(opts.Currency),
			totals.Debit.Format(opts.Currency),
			totals.Balance.Format(opts.Currency),
			fmt.Sprintf("%d", totals.Count),
		}},
	})

	return doc.String()
}

// SignedAmount formats the amount of t so credits and debits are visually
// distinct.
func SignedAmount(t core.Transaction, currency string) string {
	s := t.Amount.Format(currency)
	if t.Kind == core.Credit {
		return "**+" + s + "**"
	}
	return "-" + s
}

// Terminal styles a markdown document for display in a terminal.
func Terminal(markdown string, width int) (string, error) {
	if width <= 0 {
		width = 120
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("create terminal renderer: %w", err)
	}
	out, err := r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return out, nil
}

// Markdown table cells cannot hold pipes or newlines.
func cell(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch r {
		case '|':
			out = append(out, '/')
		case '\n', '\r':
			out = append(out, ' ')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}
