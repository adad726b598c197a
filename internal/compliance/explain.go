package compliance

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/hyndhavamahesh345/LexGuard/internal/domain"
)

// Explainer turns an evaluation into plain-language guidance.
type Explainer struct {
	cfg domain.ExplainConfig
}

// NewExplainer creates an explainer. Empty fields of cfg take the Indian TDS defaults.
func NewExplainer(cfg domain.ExplainConfig) *Explainer {
	def := domain.DefaultExplainConfig()
	if cfg.CurrencySymbol == "" {
		cfg.CurrencySymbol = def.CurrencySymbol
	}
	if cfg.LargeUnitName == "" || cfg.LargeUnitValue <= 0 {
		cfg.LargeUnitName = def.LargeUnitName
		cfg.LargeUnitValue = def.LargeUnitValue
	}
	if cfg.DepositDeadline == "" {
		cfg.DepositDeadline = def.DepositDeadline
	}
	if cfg.CertificateName == "" {
		cfg.CertificateName = def.CertificateName
	}
	if cfg.WithholdingLabel == "" {
		cfg.WithholdingLabel = def.WithholdingLabel
	}
	return &Explainer{cfg: cfg}
}

// Explain has two branches: compliant (Low risk) and withholding required (High risk).
func (x *Explainer) Explain(ev domain.EvaluationResult, c domain.Classification, in *domain.TransactionInput) domain.ExplanationResult {
	if !ev.TaxRequired || ev.TriggeredRule == nil {
		return x.compliant(c, in)
	}
	return x.withholding(ev, c, in)
}

func (x *Explainer) compliant(c domain.Classification, in *domain.TransactionInput) domain.ExplanationResult {
	label := x.cfg.WithholdingLabel
	return domain.ExplanationResult{
		Summary: fmt.Sprintf("Compliant. No %s deduction required.", label),
		Detail: fmt.Sprintf("This %s payment is currently below the annual threshold for %s. You can proceed to pay the full amount to %s.",
			c.Type, label, in.Counterparty),
		Actions: []string{
			"Pay the full invoice amount.",
			`File the invoice in your "Expenses" folder.`,
		},
		RiskLevel:  domain.RiskLow,
		NetPayable: in.Amount,
	}
}

func (x *Explainer) withholding(ev domain.EvaluationResult, c domain.Classification, in *domain.TransactionInput) domain.ExplanationResult {
	rule := ev.TriggeredRule
	label := x.cfg.WithholdingLabel
	net := in.Amount.Sub(ev.TaxAmount)

	law := rule.Law
	if law == "" {
		law = "law"
	}

	return domain.ExplanationResult{
		Summary: fmt.Sprintf("%s Deduction Required (%s)", label, rule.Section),
		Detail: fmt.Sprintf("Since the estimated annual value of this %s exceeds %s, the %s requires you to deduct tax at source. Do not pay the full amount.",
			c.Type, x.largeUnits(rule), law),
		Actions: []string{
			fmt.Sprintf("Deduct %s of %s (%s%%) from the bill.", label, x.money(ev.TaxAmount), rule.Rate.String()),
			fmt.Sprintf("Pay only %s to %s.", x.money(net), in.Counterparty),
			fmt.Sprintf("Deposit the deducted %s to the government %s.", label, x.cfg.DepositDeadline),
			fmt.Sprintf("Issue %s to the vendor after filing returns.", x.cfg.CertificateName),
		},
		RiskLevel:  domain.RiskHigh,
		NetPayable: net,
	}
}

// largeUnits phrases the rule's threshold as e.g. "₹2.4 Lakhs".
func (x *Explainer) largeUnits(rule *domain.Rule) string {
	threshold := decimal.Zero
	switch {
	case rule.ThresholdAnnual != nil:
		threshold = *rule.ThresholdAnnual
	case rule.ThresholdSingle != nil:
		threshold = *rule.ThresholdSingle
	}
	units := threshold.Div(decimal.NewFromInt(x.cfg.LargeUnitValue))
	return fmt.Sprintf("%s%s %s", x.cfg.CurrencySymbol, units.StringFixed(1), x.cfg.LargeUnitName)
}

func (x *Explainer) money(d decimal.Decimal) string {
	return FormatMoney(x.cfg.CurrencySymbol, d)
}
