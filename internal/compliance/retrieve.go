package compliance

import "github.com/hyndhavamahesh345/LexGuard/internal/domain"

// Retrieve returns the rules that apply to the classification, in table order.
// An empty result is not an error.
func Retrieve(c domain.Classification, table []domain.Rule) []domain.Rule {
	applicable := make([]domain.Rule, 0, len(table))
	for i := range table {
		if table[i].AppliesToType(c.Type) {
			applicable = append(applicable, table[i])
		}
	}
	return applicable
}
