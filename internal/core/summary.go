package core

// Summary holds the credit, debit and balance totals of a sequence.
type Summary struct {
	Credit  Money
	Debit   Money
	Balance Money // Credit - Debit
	Count   int
}

// Summarize reduces txs into exact decimal totals. Empty input yields zeros.
func Summarize(txs []Transaction) Summary {
	var s Summary
	for _, t := range txs {
		switch t.Kind {
		case Credit:
			s.Credit = s.Credit.Add(t.Amount)
		case Debit:
			s.Debit = s.Debit.Add(t.Amount)
		}
		s.Count++
	}
	s.Balance = s.Credit.Sub(s.Debit)
	return s
}
