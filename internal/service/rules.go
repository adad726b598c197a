package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hyndhavamahesh345/LexGuard/internal/domain"
	"github.com/hyndhavamahesh345/LexGuard/internal/rules"
)

// ErrEmptyRuleTable refuses a reload that would leave no rules to apply.
var ErrEmptyRuleTable = errors.New("stored rule table is empty")

// Rule table sources, reported by InitialTable.
const (
	SourceFile       = "file"
	SourceRepository = "repository"
	SourceBuiltin    = "builtin"
)

// InitialTable picks the startup rule table: the configured file, else the
// stored table, else the built-in knowledge base.
func InitialTable(ctx context.Context, cfg domain.EvaluationConfig, repo domain.Repository) ([]domain.Rule, string, error) {
	if cfg.RulesFile != "" {
		table, err := rules.LoadFile(cfg.RulesFile)
		if err != nil {
			return nil, "", err
		}
		return table, SourceFile, nil
	}

	if repo != nil {
		stored, err := repo.ListRules(ctx, domain.GlobalTenantID)
		if err != nil {
			return nil, "", fmt.Errorf("failed to list stored rules: %w", err)
		}
		if len(stored) > 0 {
			return deref(stored), SourceRepository, nil
		}
	}

	return rules.KnowledgeBase(), SourceBuiltin, nil
}

// SeedRules stores the active table when the repository holds none, so that
// rules added later extend it instead of replacing it.
func (s *Service) SeedRules(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	stored, err := s.repo.ListRules(ctx, domain.GlobalTenantID)
	if err != nil {
		return fmt.Errorf("failed to list stored rules: %w", err)
	}
	if len(stored) > 0 {
		return nil
	}

	table := s.book.Table().All()
	for i := range table {
		if err := s.repo.SaveRule(ctx, domain.GlobalTenantID, &table[i]); err != nil {
			return fmt.Errorf("failed to seed rule %s: %w", table[i].ID, err)
		}
	}
	slog.Info("rule table seeded", "count", len(table))
	return nil
}

// SaveRule validates a rule and stores it. It takes effect on the next reload.
func (s *Service) SaveRule(ctx context.Context, rule *domain.Rule) error {
	if err := s.book.Validate(rule); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if s.repo == nil {
		return ErrNoRepository
	}
	return s.repo.SaveRule(ctx, domain.GlobalTenantID, rule)
}

// ReloadRules swaps in the stored rule table. Evaluations already running
// finish against the table they started with.
func (s *Service) ReloadRules(ctx context.Context) (*rules.Table, error) {
	if s.repo == nil {
		return nil, ErrNoRepository
	}

	stored, err := s.repo.ListRules(ctx, domain.GlobalTenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stored rules: %w", err)
	}
	if len(stored) == 0 {
		return nil, ErrEmptyRuleTable
	}

	if err := s.book.Reload(deref(stored)); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	table := s.book.Table()
	slog.Info("rules reloaded", "count", len(table.Rules()), "version", table.Version())
	return table, nil
}

func deref(in []*domain.Rule) []domain.Rule {
	out := make([]domain.Rule, len(in))
	for i, r := range in {
		out[i] = *r
	}
	return out
}
