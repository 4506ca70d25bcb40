package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"ledger/internal/auth"
	"ledger/internal/core"
	applog "ledger/internal/log"
	"ledger/internal/services"
	"ledger/internal/storage"
)

type errorBody struct {
	Error        string `json:"error"`
	Field        string `json:"field,omitempty"`
	ClearAfterMs int64  `json:"clearAfterMs,omitempty"`
}

type transactionJSON struct {
	ID           string `json:"id"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	Amount       string `json:"amount"`
	Display      string `json:"display"`
	Kind         string `json:"kind"`
	PaymentMode  string `json:"paymentMode"`
	Counterparty string `json:"counterparty"`
	Remarks      string `json:"remarks"`
	ReferenceID  string `json:"referenceId"`
}

type summaryJSON struct {
	Credit   string `json:"credit"`
	Debit    string `json:"debit"`
	Balance  string `json:"balance"`
	Count    int    `json:"count"`
	Currency string `json:"currency"`
}

type viewJSON struct {
	Transactions []transactionJSON `json:"transactions"`
	Summary      summaryJSON       `json:"summary"`
	Version      uint64            `json:"version"`
	Stale        bool              `json:"stale"`
}

type sessionJSON struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
}

type importJSON struct {
	Error  string                `json:"error,omitempty"`
	Report services.ImportReport `json:"report"`
}

func toTransactionJSON(t core.Transaction, currency string) transactionJSON {
	return transactionJSON{
		ID:           t.ID,
		Date:         t.Date.String(),
		Time:         t.Time,
		Amount:       t.Amount.String(),
		Display:      t.Amount.Format(currency),
		Kind:         string(t.Kind),
		PaymentMode:  string(t.PaymentMode),
		Counterparty: t.Counterparty,
		Remarks:      t.Remarks,
		ReferenceID:  t.ReferenceID,
	}
}

func toViewJSON(v services.View, currency string) viewJSON {
	txs := make([]transactionJSON, 0, len(v.Transactions))
	for _, t := range v.Transactions {
		txs = append(txs, toTransactionJSON(t, currency))
	}
	return viewJSON{
		Transactions: txs,
		Summary: summaryJSON{
			Credit:   v.Summary.Credit.String(),
			Debit:    v.Summary.Debit.String(),
			Balance:  v.Summary.Balance.String(),
			Count:    v.Summary.Count,
			Currency: currency,
		},
		Version: v.Version,
		Stale:   v.Stale,
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) (int, errorBody) {
	var (
		ve *core.ValidationError
		ae *auth.AuthError
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity, errorBody{Error: ve.Error(), Field: ve.Field}
	case errors.As(err, &ae):
		return http.StatusUnauthorized, errorBody{Error: ae.Error(), ClearAfterMs: ae.ClearAfter.Milliseconds()}
	case storage.IsStorageError(err):
		return http.StatusInternalServerError, errorBody{Error: "storage unavailable"}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, errorBody{Error: "request cancelled"}
	default:
		return http.StatusInternalServerError, errorBody{Error: "internal error"}
	}
}

func errorType(status int) string {
	switch status {
	case http.StatusUnprocessableEntity, http.StatusBadRequest:
		return applog.ErrorTypeValidation
	case http.StatusUnauthorized:
		return applog.ErrorTypeAuth
	default:
		return applog.ErrorTypeInternal
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := statusFor(err)
	logger := applog.FromContext(r.Context())
	fields := applog.NewFields().WithError(err).WithErrorType(errorType(status))
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", fields.ToSlice()...)
	} else {
		logger.DebugContext(r.Context(), "Request rejected", fields.ToSlice()...)
	}
	writeJSON(w, status, body)
}
