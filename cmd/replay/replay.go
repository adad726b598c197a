package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hyndhavamahesh345/LexGuard/internal/domain"
)

// row is one labelled transaction.
type row struct {
	Line        int
	Input       domain.TransactionInput
	Expected    domain.Status
	ExpectedTax *decimal.Decimal
}

func readCSV(path string, limit int) ([]row, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return parseCSV(file, limit)
}

func parseCSV(r io.Reader, limit int) ([]row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	col := make(map[string]int)
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"description", "amount", "expected"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("missing column %q", required)
		}
	}

	field := func(record []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var rows []row
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		amount, err := decimal.NewFromString(field(record, "amount"))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid amount: %w", line, err)
		}

		r := row{
			Line: line,
			Input: domain.TransactionInput{
				Description:  field(record, "description"),
				Amount:       amount,
				Counterparty: field(record, "counterparty"),
				TypeHint:     field(record, "type_hint"),
				Frequency:    domain.Frequency(field(record, "frequency")),
			},
		}
		if r.Input.Frequency == "" {
			r.Input.Frequency = domain.FrequencyOneTime
		}
		if d := field(record, "date"); d != "" {
			if r.Input.Date, err = domain.ParseDate(d); err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
		}

		switch strings.ToLower(field(record, "expected")) {
		case "compliant":
			r.Expected = domain.StatusCompliant
		case "non-compliant", "noncompliant":
			r.Expected = domain.StatusNonCompliant
		default:
			return nil, fmt.Errorf("line %d: expected must be Compliant or Non-Compliant", line)
		}
		if t := field(record, "expected_tax"); t != "" {
			tax, err := decimal.NewFromString(t)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid expected_tax: %w", line, err)
			}
			r.ExpectedTax = &tax
		}

		rows = append(rows, r)
		if limit > 0 && len(rows) >= limit {
			break
		}
	}
	return rows, nil
}

type client struct {
	http     *http.Client
	baseURL  string
	tenantID string
}

func newClient(baseURL, tenantID string) *client {
	return &client{
		http:     &http.Client{Timeout: 10 * time.Second},
		baseURL:  strings.TrimRight(baseURL, "/"),
		tenantID: tenantID,
	}
}

func (c *client) health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

func (c *client) evaluate(ctx context.Context, in *domain.TransactionInput) (*domain.Evaluation, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/evaluate", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-ID", c.tenantID)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var eval domain.Evaluation
	if err := json.NewDecoder(resp.Body).Decode(&eval); err != nil {
		return nil, err
	}
	return &eval, nil
}

// Metrics is the confusion matrix with Non-Compliant as the positive class.
type Metrics struct {
	TruePositives  int
	FalsePositives int
	TrueNegatives  int
	FalseNegatives int

	TaxMismatches int
	Errors        int
	Processed     int
	LatencyTotal  time.Duration
}

func (m *Metrics) record(r rowResult) {
	m.Processed++
	m.LatencyTotal += r.Latency
	if r.Err != nil {
		m.Errors++
		return
	}

	predicted := r.Got == domain.StatusNonCompliant
	actual := r.Row.Expected == domain.StatusNonCompliant
	switch {
	case predicted && actual:
		m.TruePositives++
	case predicted && !actual:
		m.FalsePositives++
	case !predicted && !actual:
		m.TrueNegatives++
	default:
		m.FalseNegatives++
	}
	if r.TaxMismatch {
		m.TaxMismatches++
	}
}

// Precision is the share of flagged rows that were labelled Non-Compliant.
func (m *Metrics) Precision() float64 {
	return ratio(m.TruePositives, m.TruePositives+m.FalsePositives)
}

// Recall is the share of Non-Compliant rows that were flagged.
func (m *Metrics) Recall() float64 {
	return ratio(m.TruePositives, m.TruePositives+m.FalseNegatives)
}

// Accuracy is the share of rows whose verdict matched the label.
func (m *Metrics) Accuracy() float64 {
	return ratio(m.TruePositives+m.TrueNegatives, m.TruePositives+m.TrueNegatives+m.FalsePositives+m.FalseNegatives)
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

type rowResult struct {
	Row         row
	Got         domain.Status
	Tax         decimal.Decimal
	TaxMismatch bool
	Latency     time.Duration
	Err         error
}

func replay(ctx context.Context, c *client, rows []row, workers int, progress func(rowResult)) *Metrics {
	if workers < 1 {
		workers = 1
	}

	work := make(chan row)
	results := make(chan rowResult)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := range work {
				start := time.Now()
				eval, err := c.evaluate(ctx, &r.Input)
				res := rowResult{Row: r, Latency: time.Since(start), Err: err}
				if err == nil {
					res.Got = eval.Result.Status
					res.Tax = eval.Result.Evaluation.TaxAmount
					res.TaxMismatch = r.ExpectedTax != nil && !r.ExpectedTax.Equal(res.Tax)
				}
				results <- res
			}
		}()
	}

	go func() {
		defer close(work)
		for _, r := range rows {
			select {
			case work <- r:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	metrics := &Metrics{}
	for res := range results {
		metrics.record(res)
		if progress != nil {
			progress(res)
		}
	}
	return metrics
}

func printRow(w io.Writer, r rowResult) {
	if r.Err != nil {
		fmt.Fprintf(w, "! line %-4d %v\n", r.Row.Line, r.Err)
		return
	}
	mark := "ok"
	if r.Got != r.Row.Expected || r.TaxMismatch {
		mark = "XX"
	}
	fmt.Fprintf(w, "%s line %-4d %-40.40s %12s  expected %-13s got %-13s tax %s\n",
		mark, r.Row.Line, r.Row.Input.Description, r.Row.Input.Amount, r.Row.Expected, r.Got, r.Tax)
}

func printResults(w io.Writer, m *Metrics, duration time.Duration) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "CONFUSION MATRIX (positive = Non-Compliant)")
	fmt.Fprintln(w, "                      Predicted")
	fmt.Fprintln(w, "                  Non-Compl.   Compliant")
	fmt.Fprintf(w, "  Actual Non-Compl. %8d   %8d   (TP, FN)\n", m.TruePositives, m.FalseNegatives)
	fmt.Fprintf(w, "         Compliant  %8d   %8d   (FP, TN)\n", m.FalsePositives, m.TrueNegatives)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Precision:      %.4f\n", m.Precision())
	fmt.Fprintf(w, "  Recall:         %.4f\n", m.Recall())
	fmt.Fprintf(w, "  Accuracy:       %.4f\n", m.Accuracy())
	fmt.Fprintf(w, "  Tax mismatches: %d\n", m.TaxMismatches)
	fmt.Fprintf(w, "  Errors:         %d\n", m.Errors)
	fmt.Fprintf(w, "  Duration:       %v\n", duration.Round(time.Millisecond))
	if m.Processed > 0 {
		fmt.Fprintf(w, "  Avg latency:    %v\n", (m.LatencyTotal / time.Duration(m.Processed)).Round(time.Microsecond))
	}
}
