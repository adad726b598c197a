// Package compliance implements the transaction compliance pipeline:
// classification, rule retrieval, threshold evaluation and explanation.
//
// Every stage is a pure function of its inputs. A Pipeline holds no mutable
// state and is safe for concurrent use.
package compliance

import (
	"strings"

	"github.com/hyndhavamahesh345/LexGuard/internal/domain"
)

// Category is one row of the classifier's term table.
type Category struct {
	Type domain.ClassificationType

	// Terms are matched as case-insensitive substrings of the description.
	Terms []string

	// Hints are matched case-insensitively against the whole type hint.
	Hints []string

	// TDSRelevant marks types that may attract withholding.
	TDSRelevant bool
}

// DefaultCategories is the built-in term table, in priority order.
func DefaultCategories() []Category {
	return []Category{
		{Type: domain.TypeRent, Terms: []string{"rent"}, Hints: []string{"rent"}, TDSRelevant: true},
		{Type: domain.TypeService, Terms: []string{"fee", "consult"}, Hints: []string{"service"}, TDSRelevant: true},
		{Type: domain.TypeContractor, Terms: []string{"work", "labor"}, Hints: []string{"contractor"}, TDSRelevant: true},
	}
}

// Classifier assigns a ClassificationType from free text.
type Classifier struct {
	categories []Category
}

// NewClassifier returns a classifier over the given term table. The first
// matching category wins; nothing matching yields Purchase.
func NewClassifier(categories []Category) *Classifier {
	normalized := make([]Category, len(categories))
	for i, c := range categories {
		normalized[i] = Category{
			Type:        c.Type,
			Terms:       lowerAll(c.Terms),
			Hints:       lowerAll(c.Hints),
			TDSRelevant: c.TDSRelevant,
		}
	}
	return &Classifier{categories: normalized}
}

// Classify never fails. GST relevance is always true.
func (c *Classifier) Classify(in *domain.TransactionInput) domain.Classification {
	desc := strings.ToLower(in.Description)
	hint := strings.ToLower(strings.TrimSpace(in.TypeHint))

	for _, cat := range c.categories {
		if matches(cat, desc, hint) {
			return domain.Classification{
				Type:        cat.Type,
				Category:    domain.CategoryExpense,
				GSTRelevant: true,
				TDSRelevant: cat.TDSRelevant,
			}
		}
	}

	return domain.Classification{
		Type:        domain.TypePurchase,
		Category:    domain.CategoryExpense,
		GSTRelevant: true,
		TDSRelevant: false,
	}
}

func matches(cat Category, desc, hint string) bool {
	for _, term := range cat.Terms {
		if term != "" && strings.Contains(desc, term) {
			return true
		}
	}
	if hint == "" {
		return false
	}
	for _, h := range cat.Hints {
		if h == hint {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
