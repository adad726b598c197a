package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/hyndhavamahesh345/LexGuard/internal/compliance"
	"github.com/hyndhavamahesh345/LexGuard/internal/domain"
	"github.com/hyndhavamahesh345/LexGuard/internal/ledger"
	"github.com/hyndhavamahesh345/LexGuard/internal/rules"
	"github.com/hyndhavamahesh345/LexGuard/internal/service"
)

type checkOptions struct {
	description  string
	amount       string
	date         string
	counterparty string
	typeHint     string
	frequency    string
	asJSON       bool
}

func checkCmd() *cobra.Command {
	var opts checkOptions
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check one transaction without starting the server",
		Long: `Runs the compliance pipeline locally against the configured rule table
(the rules file, or the built-in knowledge base). Nothing is recorded.

Examples:
  lexguard check -d "Office rent" -a 25000 -f monthly -c "Sharma Estates"
  lexguard check -d "Consulting fee" -a 3000 -f monthly --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.description, "description", "d", "", "what the payment is for")
	cmd.Flags().StringVarP(&opts.amount, "amount", "a", "", "payment amount in rupees")
	cmd.Flags().StringVar(&opts.date, "date", "", "payment date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&opts.counterparty, "counterparty", "c", "", "who is paid")
	cmd.Flags().StringVar(&opts.typeHint, "type-hint", "", "payment type hint, e.g. rent or service")
	cmd.Flags().StringVarP(&opts.frequency, "frequency", "f", string(domain.FrequencyOneTime), "one-time or monthly")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the full result as JSON")
	_ = cmd.MarkFlagRequired("description")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func (o checkOptions) input() (*domain.TransactionInput, error) {
	amount, err := decimal.NewFromString(strings.ReplaceAll(o.amount, ",", ""))
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", o.amount, err)
	}

	in := &domain.TransactionInput{
		Description:  o.description,
		Amount:       amount,
		Counterparty: o.counterparty,
		TypeHint:     o.typeHint,
		Frequency:    domain.Frequency(o.frequency),
	}
	if o.date != "" {
		if in.Date, err = domain.ParseDate(o.date); err != nil {
			return nil, err
		}
	}
	return in, nil
}

func runCheck(cmd *cobra.Command, opts checkOptions) error {
	in, err := opts.input()
	if err != nil {
		return err
	}

	table, _, err := service.InitialTable(cmd.Context(), cfg.Evaluation, nil)
	if err != nil {
		return err
	}
	book, err := rules.NewBookWith(table)
	if err != nil {
		return err
	}

	result, err := compliance.FromConfig(book, cfg.Evaluation).Check(in)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	return printResult(out, in, &result, cfg.Evaluation.Explain.CurrencySymbol)
}

func printResult(w io.Writer, in *domain.TransactionInput, res *domain.ComplianceResult, symbol string) error {
	money := func(d decimal.Decimal) string { return compliance.FormatMoney(symbol, d) }

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Status:\t%s\n", res.Status)
	fmt.Fprintf(tw, "Type:\t%s (%s)\n", res.Classification.Type, res.Classification.Category)
	if !in.Date.IsZero() {
		fmt.Fprintf(tw, "Financial year:\t%s\n", ledger.FinancialYearLabel(in.Date.Time))
	}
	if rule := res.Evaluation.TriggeredRule; rule != nil {
		fmt.Fprintf(tw, "Rule:\t%s (%s Sec %s, %s%%)\n", rule.ID, rule.Law, rule.Section, rule.Rate)
		fmt.Fprintf(tw, "Annual value:\t%s\n", money(res.Evaluation.AnnualAmount))
		fmt.Fprintf(tw, "Tax to deduct:\t%s\n", money(res.Evaluation.TaxAmount))
	}
	fmt.Fprintf(tw, "Net payable:\t%s\n", money(res.Explanation.NetPayable))
	fmt.Fprintf(tw, "Risk:\t%s\n", res.Explanation.RiskLevel)
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%s\n%s\n\n", res.Explanation.Summary, res.Explanation.Detail)
	for i, action := range res.Explanation.Actions {
		fmt.Fprintf(w, "  %d. %s\n", i+1, action)
	}
	return nil
}
