package ledger

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hyndhavamahesh345/LexGuard/internal/domain"
	"github.com/hyndhavamahesh345/LexGuard/internal/repository"
)

func TestFinancialYear(t *testing.T) {
	tests := []struct {
		date      time.Time
		wantFrom  string
		wantLabel string
	}{
		{time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC), "2024-04-01", "FY 2024-25"},
		{time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC), "2024-04-01", "FY 2024-25"},
		{time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC), "2023-04-01", "FY 2023-24"},
		{time.Date(2099, time.December, 1, 0, 0, 0, 0, time.UTC), "2099-04-01", "FY 2099-00"},
	}

	for _, tt := range tests {
		t.Run(tt.date.Format(domain.DateLayout), func(t *testing.T) {
			from, to := FinancialYear(tt.date)
			if got := from.Format(domain.DateLayout); got != tt.wantFrom {
				t.Errorf("expected start %s, got %s", tt.wantFrom, got)
			}
			if !to.Equal(from.AddDate(1, 0, 0)) {
				t.Errorf("expected a one-year window, got %s to %s", from, to)
			}
			if got := FinancialYearLabel(tt.date); got != tt.wantLabel {
				t.Errorf("expected label %s, got %s", tt.wantLabel, got)
			}
		})
	}
}

func TestYearToDate(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "ledger-test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()
	defer os.Remove(tmpPath)

	repo, err := repository.New(domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: tmpPath,
	})
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	defer repo.Close()

	svc := NewService(repo)
	ctx := context.Background()
	tenantID := "tenant-001"

	in := &domain.TransactionInput{
		Description:  "Office rent",
		Amount:       decimal.NewFromInt(25000),
		Date:         domain.NewDate(2024, time.July, 1),
		Counterparty: "Sharma Estates",
		Frequency:    domain.FrequencyMonthly,
	}

	t.Run("EmptyDatabase", func(t *testing.T) {
		total, err := svc.YearToDate(ctx, tenantID, in)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !total.IsZero() {
			t.Errorf("expected 0 for empty database, got %s", total)
		}
	})

	t.Run("WithPayments", func(t *testing.T) {
		// March 2024 belongs to the previous year; August is after the date.
		months := []time.Month{time.March, time.April, time.May, time.June, time.July, time.August}
		for i, m := range months {
			tx := &domain.Transaction{
				ID: fmt.Sprintf("tx-%d", i),
				Input: domain.TransactionInput{
					Description:  "Office rent",
					Amount:       decimal.NewFromInt(25000),
					Date:         domain.NewDate(2024, m, 1),
					Counterparty: "Sharma Estates",
					Frequency:    domain.FrequencyMonthly,
				},
				CreatedAt: time.Now().UTC(),
			}
			if err := repo.SaveTransaction(ctx, tenantID, tx); err != nil {
				t.Fatalf("failed to save transaction: %v", err)
			}
		}

		total, err := svc.YearToDate(ctx, tenantID, in)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !total.Equal(decimal.NewFromInt(100000)) {
			t.Errorf("expected 100000 (April to July), got %s", total)
		}
	})

	t.Run("UndatedInput", func(t *testing.T) {
		undated := *in
		undated.Date = domain.Date{}

		total, err := svc.YearToDate(ctx, tenantID, &undated)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !total.IsZero() {
			t.Errorf("expected 0 for undated input, got %s", total)
		}
	})

	t.Run("RequiresTenantID", func(t *testing.T) {
		if _, err := svc.YearToDate(ctx, "", in); err == nil {
			t.Error("expected error for empty tenantID")
		}
	})
}
