package rules

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/hyndhavamahesh345/LexGuard/internal/domain"
)

func TestBookCreation(t *testing.T) {
	book, err := NewBook()
	if err != nil {
		t.Fatalf("failed to create book: %v", err)
	}

	if book.Len() != 0 {
		t.Errorf("expected 0 rules, got %d", book.Len())
	}
	if book.Table().Version() == "" {
		t.Error("expected a version for the empty table")
	}
}

func TestDefaultKnowledgeBase(t *testing.T) {
	book := MustDefault()

	if book.Len() != 3 {
		t.Fatalf("expected 3 rules, got %d", book.Len())
	}

	want := []string{RuleTDS194I, RuleTDS194J, RuleTDS194C}
	for i, r := range book.Table().Rules() {
		if r.ID != want[i] {
			t.Errorf("rule %d: expected %s, got %s", i, want[i], r.ID)
		}
		if len(r.AppliesTo) == 0 {
			t.Errorf("rule %s: appliesTo must not be empty", r.ID)
		}
	}

	c, ok := book.Table().Find(RuleTDS194C)
	if !ok {
		t.Fatal("expected TDS_194C to be present")
	}
	if c.ThresholdSingle == nil || !c.ThresholdSingle.Equal(decimal.NewFromInt(30000)) {
		t.Errorf("expected single threshold 30000, got %v", c.ThresholdSingle)
	}
}

func TestReloadRejectsInvalidRules(t *testing.T) {
	book := MustDefault()
	before := book.Table().Version()

	tests := []struct {
		name string
		rule domain.Rule
	}{
		{
			name: "EmptyAppliesTo",
			rule: domain.Rule{ID: "x", Section: "1", Rate: decimal.NewFromInt(1), Enabled: true},
		},
		{
			name: "RateAboveHundred",
			rule: domain.Rule{ID: "x", Section: "1", AppliesTo: []domain.ClassificationType{domain.TypeRent}, Rate: decimal.NewFromInt(101), Enabled: true},
		},
		{
			name: "NegativeRate",
			rule: domain.Rule{ID: "x", Section: "1", AppliesTo: []domain.ClassificationType{domain.TypeRent}, Rate: decimal.NewFromInt(-1), Enabled: true},
		},
		{
			name: "InvalidCondition",
			rule: domain.Rule{ID: "x", Section: "1", AppliesTo: []domain.ClassificationType{domain.TypeRent}, Rate: decimal.NewFromInt(1), Condition: "this is not valid CEL !!!", Enabled: true},
		},
		{
			name: "NonBoolCondition",
			rule: domain.Rule{ID: "x", Section: "1", AppliesTo: []domain.ClassificationType{domain.TypeRent}, Rate: decimal.NewFromInt(1), Condition: "amount * 2.0", Enabled: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := book.Reload([]domain.Rule{tt.rule}); err == nil {
				t.Error("expected reload to fail")
			}
			if book.Table().Version() != before {
				t.Error("failed reload must leave the table untouched")
			}
		})
	}

	t.Run("DuplicateID", func(t *testing.T) {
		kb := KnowledgeBase()
		if err := book.Reload(append(kb, kb[0])); err == nil {
			t.Error("expected duplicate id to be rejected")
		}
	})
}

func TestReloadSkipsDisabledRules(t *testing.T) {
	kb := KnowledgeBase()
	kb[1].Enabled = false

	book, err := NewBookWith(kb)
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}

	if book.Len() != 2 {
		t.Errorf("expected 2 enabled rules, got %d", book.Len())
	}
	if len(book.Table().All()) != 3 {
		t.Errorf("expected 3 rules in total, got %d", len(book.Table().All()))
	}
	for _, r := range book.Table().Rules() {
		if r.ID == RuleTDS194J {
			t.Error("disabled rule must not be retrievable")
		}
	}
}

func TestSnapshotIsolation(t *testing.T) {
	book := MustDefault()
	snapshot := book.Table()

	if err := book.Reload(KnowledgeBase()[:1]); err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	if len(snapshot.Rules()) != 3 {
		t.Errorf("old snapshot changed: got %d rules", len(snapshot.Rules()))
	}
	if book.Len() != 1 {
		t.Errorf("expected 1 rule after reload, got %d", book.Len())
	}
	if snapshot.Version() == book.Table().Version() {
		t.Error("different tables must have different versions")
	}

	rules := snapshot.Rules()
	rules[0].AppliesTo[0] = "Mutated"
	if snapshot.Rules()[0].AppliesTo[0] != domain.TypeRent {
		t.Error("callers must not be able to mutate the table")
	}
}

func TestVersionIsDeterministic(t *testing.T) {
	a := MustDefault()
	b := MustDefault()
	if a.Table().Version() != b.Table().Version() {
		t.Errorf("expected equal versions, got %s and %s", a.Table().Version(), b.Table().Version())
	}
}

func TestGuards(t *testing.T) {
	rule := domain.Rule{
		ID:        "guarded",
		Section:   "194X",
		AppliesTo: []domain.ClassificationType{domain.TypeService},
		Rate:      decimal.NewFromInt(5),
		Condition: `frequency == "monthly" && counterparty.startsWith("Acme")`,
		Enabled:   true,
	}
	book, err := NewBookWith([]domain.Rule{rule, KnowledgeBase()[0]})
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	table := book.Table()

	facts := Facts{
		Type:         domain.TypeService,
		Counterparty: "Acme Consulting",
		Frequency:    domain.FrequencyMonthly,
		Amount:       decimal.NewFromInt(1000),
		AnnualAmount: decimal.NewFromInt(12000),
	}

	if !table.Admits(&rule, facts) {
		t.Error("expected guard to admit matching facts")
	}

	facts.Frequency = domain.FrequencyOneTime
	if table.Admits(&rule, facts) {
		t.Error("expected guard to reject one-time payment")
	}

	unguarded := KnowledgeBase()[0]
	if !table.Admits(&unguarded, facts) {
		t.Error("rules without a condition are always admitted")
	}
}
