package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/hyndhavamahesh345/LexGuard/internal/domain"
	"github.com/hyndhavamahesh345/LexGuard/internal/repository"
	"github.com/hyndhavamahesh345/LexGuard/internal/rules"
	"github.com/hyndhavamahesh345/LexGuard/internal/service"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect and validate rule tables",
	}
	cmd.AddCommand(rulesListCmd())
	cmd.AddCommand(rulesValidateCmd())
	cmd.AddCommand(rulesExportCmd())
	return cmd
}

func rulesListCmd() *cobra.Command {
	var builtin bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the rule table the server would start with",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var repo domain.Repository
			if !builtin {
				r, err := repository.New(cfg.Repository)
				if err != nil {
					slog.Warn("repository unavailable, skipping stored rules", "error", err)
				} else {
					defer r.Close()
					repo = r
				}
			}

			table, source, err := service.InitialTable(cmd.Context(), cfg.Evaluation, repo)
			if err != nil {
				return err
			}
			book, err := rules.NewBookWith(table)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "source: %s  version: %s\n\n", source, book.Table().Version())

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSECTION\tAPPLIES TO\tANNUAL\tSINGLE\tRATE\tENABLED")
			for _, r := range book.Table().All() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s%%\t%t\n",
					r.ID, r.Section, joinTypes(r.AppliesTo),
					orDash(r.ThresholdAnnual), orDash(r.ThresholdSingle),
					r.Rate, r.Enabled)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&builtin, "builtin", false, "ignore the repository")
	return cmd
}

func rulesValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Validate a YAML rule table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := rules.LoadFile(args[0])
			if err != nil {
				return err
			}
			book, err := rules.NewBookWith(table)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok, %d rules (%d enabled), version %s\n",
				args[0], len(table), book.Len(), book.Table().Version())
			return nil
		},
	}
}

func rulesExportCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the built-in knowledge base as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := rules.Marshal(rules.KnowledgeBase())
			if err != nil {
				return err
			}
			if output == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			return os.WriteFile(output, data, 0o644)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write (default stdout)")
	return cmd
}

func joinTypes(types []domain.ClassificationType) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = string(t)
	}
	return strings.Join(parts, ",")
}

func orDash(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	return d.String()
}
