package rules

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/hyndhavamahesh345/LexGuard/internal/domain"
)

// ruleFile is the on-disk YAML layout of a rule table.
type ruleFile struct {
	Rules []ruleEntry `yaml:"rules"`
}

type ruleEntry struct {
	ID              string   `yaml:"id"`
	Law             string   `yaml:"law"`
	Section         string   `yaml:"section"`
	AppliesTo       []string `yaml:"appliesTo"`
	ThresholdAnnual string   `yaml:"thresholdAnnual,omitempty"`
	ThresholdSingle string   `yaml:"thresholdSingle,omitempty"`
	Rate            string   `yaml:"rate"`
	Description     string   `yaml:"description,omitempty"`
	Condition       string   `yaml:"condition,omitempty"`
	Enabled         *bool    `yaml:"enabled,omitempty"`
}

// LoadFile reads a YAML rule table from disk.
func LoadFile(path string) ([]domain.Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rule table: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML rule table. Rules are enabled unless they say otherwise.
func Parse(data []byte) ([]domain.Rule, error) {
	var f ruleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing rule table: %w", err)
	}

	table := make([]domain.Rule, 0, len(f.Rules))
	for i, e := range f.Rules {
		rule, err := e.toRule()
		if err != nil {
			return nil, fmt.Errorf("rule #%d (%s): %w", i+1, e.ID, err)
		}
		table = append(table, rule)
	}
	return table, nil
}

// Marshal encodes a rule table in the layout Parse reads.
func Marshal(table []domain.Rule) ([]byte, error) {
	f := ruleFile{Rules: make([]ruleEntry, len(table))}
	for i, r := range table {
		enabled := r.Enabled
		e := ruleEntry{
			ID:          r.ID,
			Law:         r.Law,
			Section:     r.Section,
			Rate:        r.Rate.String(),
			Description: r.Description,
			Condition:   r.Condition,
			Enabled:     &enabled,
		}
		for _, t := range r.AppliesTo {
			e.AppliesTo = append(e.AppliesTo, string(t))
		}
		if r.ThresholdAnnual != nil {
			e.ThresholdAnnual = r.ThresholdAnnual.String()
		}
		if r.ThresholdSingle != nil {
			e.ThresholdSingle = r.ThresholdSingle.String()
		}
		f.Rules[i] = e
	}
	data, err := yaml.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("marshaling rule table: %w", err)
	}
	return data, nil
}

func (e ruleEntry) toRule() (domain.Rule, error) {
	rate, err := decimal.NewFromString(e.Rate)
	if err != nil {
		return domain.Rule{}, fmt.Errorf("invalid rate %q: %w", e.Rate, err)
	}

	rule := domain.Rule{
		ID:          e.ID,
		Law:         e.Law,
		Section:     e.Section,
		Rate:        rate,
		Description: e.Description,
		Condition:   e.Condition,
		Enabled:     e.Enabled == nil || *e.Enabled,
	}
	for _, t := range e.AppliesTo {
		rule.AppliesTo = append(rule.AppliesTo, domain.ClassificationType(t))
	}
	if rule.ThresholdAnnual, err = optionalAmount(e.ThresholdAnnual); err != nil {
		return domain.Rule{}, fmt.Errorf("invalid thresholdAnnual: %w", err)
	}
	if rule.ThresholdSingle, err = optionalAmount(e.ThresholdSingle); err != nil {
		return domain.Rule{}, fmt.Errorf("invalid thresholdSingle: %w", err)
	}
	return rule, nil
}

func optionalAmount(s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
