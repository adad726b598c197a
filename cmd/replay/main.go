// Replay runs a labelled CSV of transactions against a LexGuard server and
// reports how often its verdicts match the labels.
//
// Usage:
//
//	replay --csv payments.csv --url http://localhost:8080
//
// The CSV needs a header row with the columns description, amount and
// expected (Compliant or Non-Compliant). date, counterparty, type_hint,
// frequency and expected_tax are optional.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

type options struct {
	csvPath  string
	baseURL  string
	tenantID string
	limit    int
	workers  int
	verbose  bool
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:          "replay",
		Short:        "Replay labelled transactions against a LexGuard server",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.csvPath, "csv", "", "path to the labelled CSV file")
	cmd.Flags().StringVar(&opts.baseURL, "url", "http://localhost:8080", "LexGuard base URL")
	cmd.Flags().StringVar(&opts.tenantID, "tenant", "replay", "tenant ID for requests")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "maximum rows to replay (0 = all)")
	cmd.Flags().IntVar(&opts.workers, "workers", 4, "number of concurrent requests")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "print every row")
	_ = cmd.MarkFlagRequired("csv")
	return cmd
}

func run(cmd *cobra.Command, opts options) error {
	out := cmd.OutOrStdout()

	client := newClient(opts.baseURL, opts.tenantID)
	if err := client.health(cmd.Context()); err != nil {
		return fmt.Errorf("lexguard not reachable at %s: %w", opts.baseURL, err)
	}

	rows, err := readCSV(opts.csvPath, opts.limit)
	if err != nil {
		return fmt.Errorf("failed to read CSV: %w", err)
	}
	fmt.Fprintf(out, "Loaded %d rows from %s\n", len(rows), opts.csvPath)

	var progress func(rowResult)
	if opts.verbose {
		progress = func(r rowResult) { printRow(out, r) }
	}

	start := time.Now()
	metrics := replay(cmd.Context(), client, rows, opts.workers, progress)
	printResults(out, metrics, time.Since(start))

	if metrics.Errors > 0 {
		return fmt.Errorf("%d rows failed", metrics.Errors)
	}
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
