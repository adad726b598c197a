package rules

import (
	"github.com/shopspring/decimal"

	"github.com/hyndhavamahesh345/LexGuard/internal/domain"
)

// Built-in rule IDs.
const (
	RuleTDS194I = "TDS_194I"
	RuleTDS194J = "TDS_194J"
	RuleTDS194C = "TDS_194C"
)

// Extra classification types named by the built-in table. The default
// classifier never produces them; custom classifiers may.
const (
	TypeProfessionalFees domain.ClassificationType = "Professional Fees"
	TypeLabor            domain.ClassificationType = "Labor"
)

// KnowledgeBase returns the built-in Income Tax Act withholding rules, in
// retrieval order.
func KnowledgeBase() []domain.Rule {
	return []domain.Rule{
		{
			ID:              RuleTDS194I,
			Law:             "Income Tax Act",
			Section:         "194I",
			AppliesTo:       []domain.ClassificationType{domain.TypeRent},
			ThresholdAnnual: amountPtr(240000),
			Rate:            decimal.NewFromInt(10), // land/building
			Description:     "TDS on Rent",
			Enabled:         true,
		},
		{
			ID:              RuleTDS194J,
			Law:             "Income Tax Act",
			Section:         "194J",
			AppliesTo:       []domain.ClassificationType{domain.TypeService, TypeProfessionalFees},
			ThresholdAnnual: amountPtr(30000),
			Rate:            decimal.NewFromInt(10),
			Description:     "TDS on Professional/Technical Services",
			Enabled:         true,
		},
		{
			ID:              RuleTDS194C,
			Law:             "Income Tax Act",
			Section:         "194C",
			AppliesTo:       []domain.ClassificationType{domain.TypeContractor, TypeLabor},
			ThresholdSingle: amountPtr(30000),
			ThresholdAnnual: amountPtr(100000),
			Rate:            decimal.NewFromInt(1), // individual payee
			Description:     "TDS on Payments to Contractors",
			Enabled:         true,
		},
	}
}

func amountPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}
