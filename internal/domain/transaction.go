package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Frequency governs how a payment is annualized.
type Frequency string

const (
	FrequencyOneTime Frequency = "one-time"
	FrequencyMonthly Frequency = "monthly"
)

// Valid reports whether f is one of the supported frequencies.
func (f Frequency) Valid() bool {
	return f == FrequencyOneTime || f == FrequencyMonthly
}

// DateLayout is the wire format for transaction dates.
const DateLayout = "2006-01-02"

// Date is a calendar date without a time component.
type Date struct {
	time.Time
}

// NewDate returns the Date for the given calendar day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t}, nil
}

// String returns the date in YYYY-MM-DD form, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MarshalJSON encodes the date as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts "YYYY-MM-DD" or an empty string.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// TransactionInput is the request to evaluate.
type TransactionInput struct {
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"`
	Date         Date            `json:"date"`
	Counterparty string          `json:"counterparty"`
	TypeHint     string          `json:"typeHint,omitempty"`
	Frequency    Frequency       `json:"frequency"`
}

// Validate runs the lightweight boundary checks. Every failed field is
// reported in a single *ValidationError.
func (in *TransactionInput) Validate() error {
	var verr ValidationError
	if strings.TrimSpace(in.Description) == "" {
		verr.Add("description", "is required")
	}
	if !in.Amount.IsPositive() {
		verr.Add("amount", "must be positive")
	}
	if in.Frequency == "" {
		verr.Add("frequency", "is required")
	} else if !in.Frequency.Valid() {
		verr.Add("frequency", fmt.Sprintf("must be %q or %q, got %q", FrequencyOneTime, FrequencyMonthly, in.Frequency))
	}
	if verr.Empty() {
		return nil
	}
	return &verr
}

// Transaction is a persisted transaction input.
type Transaction struct {
	ID        string           `json:"id"`
	TenantID  string           `json:"tenantId"`
	Input     TransactionInput `json:"input"`
	CreatedAt time.Time        `json:"createdAt"`
}
