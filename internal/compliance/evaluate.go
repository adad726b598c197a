package compliance

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/hyndhavamahesh345/LexGuard/internal/domain"
	"github.com/hyndhavamahesh345/LexGuard/internal/rules"
)

// NoRuleTriggered is the details text of a compliant evaluation.
const NoRuleTriggered = "No specific tax rules triggered."

var (
	monthsPerYear = decimal.NewFromInt(12)
	hundred       = decimal.NewFromInt(100)
)

// Guard decides whether a rule's applicability condition holds.
// *rules.Table implements it.
type Guard interface {
	Admits(rule *domain.Rule, facts rules.Facts) bool
}

// Evaluator applies threshold checks to the retrieved rules.
type Evaluator struct {
	checkSingle bool
	symbol      string
}

// EvaluatorOption configures an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithSingleThreshold also triggers a rule when the per-transaction amount
// exceeds its thresholdSingle.
func WithSingleThreshold() EvaluatorOption {
	return func(e *Evaluator) {
		e.checkSingle = true
	}
}

// WithCurrencySymbol sets the symbol used in the details text.
func WithCurrencySymbol(symbol string) EvaluatorOption {
	return func(e *Evaluator) {
		e.symbol = symbol
	}
}

// NewEvaluator creates an evaluator. By default only annual thresholds are checked.
func NewEvaluator(opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{symbol: defaultSymbol}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Annualize projects a payment to a yearly figure.
func Annualize(amount decimal.Decimal, f domain.Frequency) decimal.Decimal {
	if f == domain.FrequencyMonthly {
		return amount.Mul(monthsPerYear)
	}
	return amount
}

// TaxAmount is amount*rate/100, rounded half away from zero to paise.
func TaxAmount(amount, rate decimal.Decimal) decimal.Decimal {
	return amount.Mul(rate).Div(hundred).Round(2)
}

// Evaluate returns the result for the first rule, in order, whose threshold
// is strictly exceeded and whose guard admits the transaction. guard may be nil.
func (e *Evaluator) Evaluate(in *domain.TransactionInput, c domain.Classification, applicable []domain.Rule, guard Guard) domain.EvaluationResult {
	annual := Annualize(in.Amount, in.Frequency)
	result := domain.EvaluationResult{
		TaxAmount:    decimal.Zero,
		AnnualAmount: annual,
		Details:      NoRuleTriggered,
	}

	facts := rules.Facts{
		Type:         c.Type,
		Description:  in.Description,
		Counterparty: in.Counterparty,
		TypeHint:     in.TypeHint,
		Frequency:    in.Frequency,
		Amount:       in.Amount,
		AnnualAmount: annual,
	}

	for i := range applicable {
		rule := &applicable[i]

		details, exceeded := e.exceeds(rule, in.Amount, annual)
		if !exceeded {
			continue
		}
		if guard != nil && !guard.Admits(rule, facts) {
			continue
		}

		triggered := *rule
		result.ThresholdExceeded = true
		result.TaxRequired = true
		result.TaxAmount = TaxAmount(in.Amount, rule.Rate)
		result.TriggeredRule = &triggered
		result.Details = details
		break
	}

	return result
}

func (e *Evaluator) exceeds(rule *domain.Rule, amount, annual decimal.Decimal) (string, bool) {
	if rule.ThresholdAnnual != nil && annual.GreaterThan(*rule.ThresholdAnnual) {
		return fmt.Sprintf("Annual value (%s) exceeds threshold of %s under Sec %s.",
			FormatMoney(e.symbol, annual), FormatMoney(e.symbol, *rule.ThresholdAnnual), rule.Section), true
	}
	if e.checkSingle && rule.ThresholdSingle != nil && amount.GreaterThan(*rule.ThresholdSingle) {
		return fmt.Sprintf("Transaction value (%s) exceeds single-payment threshold of %s under Sec %s.",
			FormatMoney(e.symbol, amount), FormatMoney(e.symbol, *rule.ThresholdSingle), rule.Section), true
	}
	return "", false
}
