// Package ledger sums earlier payments to a counterparty within the Indian
// financial year (April to March).
package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hyndhavamahesh345/LexGuard/internal/domain"
)

// Service computes cumulative payments per counterparty.
type Service struct {
	repo domain.Repository
}

// NewService creates a new ledger service.
func NewService(repo domain.Repository) *Service {
	return &Service{repo: repo}
}

// FinancialYear returns [from, to) of the financial year containing t.
func FinancialYear(t time.Time) (from, to time.Time) {
	year := t.Year()
	if t.Month() < time.April {
		year--
	}
	from = time.Date(year, time.April, 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(1, 0, 0)
}

// FinancialYearLabel names the financial year containing t, e.g. "FY 2024-25".
func FinancialYearLabel(t time.Time) string {
	from, _ := FinancialYear(t)
	return fmt.Sprintf("FY %d-%02d", from.Year(), (from.Year()+1)%100)
}

// YearToDate totals recorded payments to in.Counterparty from the start of
// the financial year through in.Date. Undated or anonymous payments have no
// year to date and return zero.
func (s *Service) YearToDate(ctx context.Context, tenantID string, in *domain.TransactionInput) (decimal.Decimal, error) {
	if tenantID == "" {
		return decimal.Zero, fmt.Errorf("%w: tenantID is required", domain.ErrInvalidInput)
	}
	if in.Date.IsZero() || strings.TrimSpace(in.Counterparty) == "" {
		return decimal.Zero, nil
	}
	if s.repo == nil {
		return decimal.Zero, fmt.Errorf("no data source available")
	}

	from, _ := FinancialYear(in.Date.Time)
	through := in.Date.AddDate(0, 0, 1)

	total, err := s.repo.SumPaymentsToCounterparty(ctx, tenantID, in.Counterparty, from, through)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum payments to %s: %w", in.Counterparty, err)
	}
	return total, nil
}
