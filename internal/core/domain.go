package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Credit Kind = "credit"
	Debit  Kind = "debit"

	Cash   PaymentMode = "cash"
	Online PaymentMode = "online"
)

// PasswordKey is the configuration key holding the encoded secret.
const PasswordKey = "passwordHash"

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

type (
	// Kind is the direction of money flow.
	Kind string

	// PaymentMode tells how the money moved.
	PaymentMode string

	Date struct {
		time.Time
	}

	// Transaction is the durable unit of record. Edits replace the whole
	// record under the same ID.
	Transaction struct {
		ID           string
		Date         Date
		Time         string // HH:MM, not combined with Date
		Amount       Money
		Kind         Kind
		PaymentMode  PaymentMode
		Counterparty string
		Remarks      string
		ReferenceID  string // required when PaymentMode is Online
	}

	// ConfigEntry is a generic application setting.
	ConfigEntry struct {
		Key   string
		Value string
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
)

// ValidationError reports a field that failed manual-entry or criteria
// validation. It never reaches the store.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidationError reports whether err carries a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// ParseKind lower-cases s and checks it against the known kinds.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.IsValid() {
		return "", invalid("kind", fmt.Sprintf("%q is not credit or debit", s))
	}
	return k, nil
}

func (k Kind) IsValid() bool {
	return k == Credit || k == Debit
}

// ParsePaymentMode lower-cases s and checks it against the known modes.
func ParsePaymentMode(s string) (PaymentMode, error) {
	m := PaymentMode(strings.ToLower(strings.TrimSpace(s)))
	if !m.IsValid() {
		return "", invalid("paymentMode", fmt.Sprintf("%q is not cash or online", s))
	}
	return m, nil
}

func (m PaymentMode) IsValid() bool {
	return m == Cash || m == Online
}

// ParseDate parses an ISO 8601 calendar date (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, invalid("date", fmt.Sprintf("%q is not YYYY-MM-DD", s))
	}
	return Date{Time: t}, nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// Compare orders dates chronologically.
func (d Date) Compare(o Date) int {
	return d.Time.Compare(o.Time)
}

// ParseTime parses a wall-clock time and returns it zero-padded as HH:MM,
// so "9:05" becomes "09:05". Stored times compare correctly as strings.
func ParseTime(s string) (string, error) {
	t, err := time.Parse(timeLayout, strings.TrimSpace(s))
	if err != nil {
		return "", invalid("time", fmt.Sprintf("%q is not HH:MM", s))
	}
	return t.Format(timeLayout), nil
}

// ValidTime reports whether s is a wall-clock time in canonical HH:MM form.
func ValidTime(s string) bool {
	canon, err := ParseTime(s)
	return err == nil && canon == s
}

// Validate enforces the manual-entry rules: every required field present,
// a positive amount and a reference id for online payments.
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return invalid("id", "required")
	}
	if err := t.Date.Validate(); err != nil {
		return invalid("date", err.Error())
	}
	if !ValidTime(t.Time) {
		return invalid("time", fmt.Sprintf("%q is not HH:MM", t.Time))
	}
	if err := t.Amount.Validate(); err != nil {
		return invalid("amount", "must be greater than zero")
	}
	if !t.Kind.IsValid() {
		return invalid("kind", fmt.Sprintf("%q is not credit or debit", t.Kind))
	}
	if !t.PaymentMode.IsValid() {
		return invalid("paymentMode", fmt.Sprintf("%q is not cash or online", t.PaymentMode))
	}
	if strings.TrimSpace(t.Counterparty) == "" {
		return invalid("counterparty", "required")
	}
	if strings.TrimSpace(t.Remarks) == "" {
		return invalid("remarks", "required")
	}
	if len(t.Remarks) > 500 {
		return invalid("remarks", "too long (max 500 characters)")
	}
	if t.PaymentMode == Online && strings.TrimSpace(t.ReferenceID) == "" {
		return invalid("referenceId", "required for online payments")
	}
	return nil
}
