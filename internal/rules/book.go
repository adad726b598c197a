// Package rules holds the tax-law rule table and its CEL applicability guards.
package rules

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/shopspring/decimal"

	"github.com/hyndhavamahesh345/LexGuard/internal/domain"
)

// Book is the swappable rule table consumed by the compliance pipeline.
// Readers take a Table snapshot; Reload swaps the whole table at once.
type Book struct {
	mu    sync.RWMutex
	env   *cel.Env
	table *Table
}

// Table is an immutable snapshot of a Book.
type Table struct {
	version string
	rules   []domain.Rule
	all     []domain.Rule
	guards  map[string]cel.Program
}

// Facts are the transaction values a rule guard can reference.
type Facts struct {
	Type         domain.ClassificationType
	Description  string
	Counterparty string
	TypeHint     string
	Frequency    domain.Frequency
	Amount       decimal.Decimal
	AnnualAmount decimal.Decimal
}

// NewBook creates an empty rule book.
func NewBook() (*Book, error) {
	env, err := cel.NewEnv(
		cel.Variable("amount", cel.DoubleType),
		cel.Variable("annual_amount", cel.DoubleType),
		cel.Variable("frequency", cel.StringType),
		cel.Variable("counterparty", cel.StringType),
		cel.Variable("description", cel.StringType),
		cel.Variable("type_hint", cel.StringType),
		cel.Variable("type", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	b := &Book{env: env}
	b.table = &Table{version: versionOf(nil), guards: map[string]cel.Program{}}
	return b, nil
}

// NewBookWith creates a rule book loaded with the given table.
func NewBookWith(table []domain.Rule) (*Book, error) {
	b, err := NewBook()
	if err != nil {
		return nil, err
	}
	if err := b.Reload(table); err != nil {
		return nil, err
	}
	return b, nil
}

// MustDefault returns a book loaded with the built-in knowledge base.
func MustDefault() *Book {
	b, err := NewBookWith(KnowledgeBase())
	if err != nil {
		panic(fmt.Sprintf("built-in knowledge base is invalid: %v", err))
	}
	return b
}

// Validate checks a rule and compiles its guard without touching the table.
func (b *Book) Validate(rule *domain.Rule) error {
	if rule == nil {
		return fmt.Errorf("rule is required")
	}
	if err := rule.Validate(); err != nil {
		return fmt.Errorf("rule %q: %w", rule.ID, err)
	}
	_, err := b.compileGuard(rule)
	return err
}

// Reload replaces the table. Table order is preserved and is the retrieval
// order. Duplicate IDs are rejected. Nothing changes if any rule is invalid.
func (b *Book) Reload(table []domain.Rule) error {
	next := &Table{
		rules:  make([]domain.Rule, 0, len(table)),
		all:    make([]domain.Rule, 0, len(table)),
		guards: make(map[string]cel.Program),
	}

	seen := make(map[string]bool, len(table))
	for i := range table {
		rule := cloneRule(table[i])
		if seen[rule.ID] {
			return fmt.Errorf("duplicate rule id %q", rule.ID)
		}
		seen[rule.ID] = true

		if err := b.Validate(&rule); err != nil {
			return err
		}
		next.all = append(next.all, rule)
		if !rule.Enabled {
			continue
		}

		program, err := b.compileGuard(&rule)
		if err != nil {
			return err
		}
		if program != nil {
			next.guards[rule.ID] = program
		}
		next.rules = append(next.rules, rule)
	}
	next.version = versionOf(next.all)

	b.mu.Lock()
	b.table = next
	b.mu.Unlock()
	return nil
}

// Table returns the current snapshot.
func (b *Book) Table() *Table {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.table
}

// Len returns the number of enabled rules.
func (b *Book) Len() int {
	return len(b.Table().rules)
}

func (b *Book) compileGuard(rule *domain.Rule) (cel.Program, error) {
	if rule.Condition == "" {
		return nil, nil
	}

	ast, issues := b.env.Compile(rule.Condition)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("failed to compile condition of rule %s: %w", rule.ID, issues.Err())
	}
	if ast.OutputType() != cel.BoolType {
		return nil, fmt.Errorf("rule %s: condition must return bool, got %s", rule.ID, ast.OutputType())
	}

	program, err := b.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create program for rule %s: %w", rule.ID, err)
	}
	return program, nil
}

// Version identifies the table contents; equal tables share a version.
func (t *Table) Version() string {
	return t.version
}

// Rules returns the enabled rules in table order. The slice is a copy.
func (t *Table) Rules() []domain.Rule {
	out := make([]domain.Rule, len(t.rules))
	for i := range t.rules {
		out[i] = cloneRule(t.rules[i])
	}
	return out
}

// All returns every rule including disabled ones, in table order.
func (t *Table) All() []domain.Rule {
	out := make([]domain.Rule, len(t.all))
	for i := range t.all {
		out[i] = cloneRule(t.all[i])
	}
	return out
}

// Find returns the rule with the given ID.
func (t *Table) Find(id string) (domain.Rule, bool) {
	for i := range t.all {
		if t.all[i].ID == id {
			return cloneRule(t.all[i]), true
		}
	}
	return domain.Rule{}, false
}

// Admits evaluates the rule's guard. Rules without a guard are always
// admitted; a guard that fails at runtime does not admit.
func (t *Table) Admits(rule *domain.Rule, facts Facts) bool {
	program, ok := t.guards[rule.ID]
	if !ok {
		return true
	}

	amount, _ := facts.Amount.Float64()
	annual, _ := facts.AnnualAmount.Float64()
	out, _, err := program.Eval(map[string]any{
		"amount":        amount,
		"annual_amount": annual,
		"frequency":     string(facts.Frequency),
		"counterparty":  facts.Counterparty,
		"description":   facts.Description,
		"type_hint":     facts.TypeHint,
		"type":          string(facts.Type),
	})
	if err != nil {
		slog.Warn("rule condition evaluation failed", "rule_id", rule.ID, "error", err)
		return false
	}
	admitted, ok := out.(types.Bool)
	return ok && bool(admitted)
}

func cloneRule(r domain.Rule) domain.Rule {
	r.AppliesTo = append([]domain.ClassificationType(nil), r.AppliesTo...)
	if r.ThresholdAnnual != nil {
		v := *r.ThresholdAnnual
		r.ThresholdAnnual = &v
	}
	if r.ThresholdSingle != nil {
		v := *r.ThresholdSingle
		r.ThresholdSingle = &v
	}
	return r
}

func versionOf(table []domain.Rule) string {
	data, _ := json.Marshal(table)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:6])
}
