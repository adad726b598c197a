package domain

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// ClassificationType is the payment-purpose category driving rule
// applicability. The set is open: rule tables may name types beyond the
// constants below.
type ClassificationType string

const (
	TypeRent       ClassificationType = "Rent"
	TypeService    ClassificationType = "Service"
	TypeContractor ClassificationType = "Contractor"
	TypePurchase   ClassificationType = "Purchase"
)

// CategoryExpense is the only category the default classifier produces.
const CategoryExpense = "Expense"

// Classification is derived from a TransactionInput; it is never persisted on its own.
type Classification struct {
	Type        ClassificationType `json:"type"`
	Category    string             `json:"category"`
	GSTRelevant bool               `json:"gstRelevant"`
	TDSRelevant bool               `json:"tdsRelevant"`
}

// Rule is one entry of the tax-law knowledge base.
type Rule struct {
	ID              string               `json:"id"`
	Law             string               `json:"law"`
	Section         string               `json:"section"`
	AppliesTo       []ClassificationType `json:"appliesTo"`
	ThresholdAnnual *decimal.Decimal     `json:"thresholdAnnual,omitempty"`
	ThresholdSingle *decimal.Decimal     `json:"thresholdSingle,omitempty"`
	Rate            decimal.Decimal      `json:"rate"`
	Description     string               `json:"description"`

	// Condition is an optional CEL guard; empty means always eligible.
	Condition string `json:"condition,omitempty"`

	Enabled bool `json:"enabled"`
}

// AppliesToType reports whether the rule covers t.
func (r *Rule) AppliesToType(t ClassificationType) bool {
	return slices.Contains(r.AppliesTo, t)
}

var maxRate = decimal.NewFromInt(100)

// Validate checks the structural invariants of a rule.
func (r *Rule) Validate() error {
	var verr ValidationError
	if strings.TrimSpace(r.ID) == "" {
		verr.Add("id", "is required")
	}
	if strings.TrimSpace(r.Section) == "" {
		verr.Add("section", "is required")
	}
	if len(r.AppliesTo) == 0 {
		verr.Add("appliesTo", "must name at least one type")
	}
	if r.Rate.IsNegative() || r.Rate.GreaterThan(maxRate) {
		verr.Add("rate", fmt.Sprintf("must be within [0,100], got %s", r.Rate))
	}
	if r.ThresholdAnnual != nil && r.ThresholdAnnual.IsNegative() {
		verr.Add("thresholdAnnual", "must not be negative")
	}
	if r.ThresholdSingle != nil && r.ThresholdSingle.IsNegative() {
		verr.Add("thresholdSingle", "must not be negative")
	}
	if verr.Empty() {
		return nil
	}
	return &verr
}
