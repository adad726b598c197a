package compliance

import (
	"strings"

	"github.com/shopspring/decimal"
)

const defaultSymbol = "₹"

// FormatMoney renders an amount with Indian digit grouping (12,34,567).
// Whole amounts carry no fraction; others show two decimal places.
func FormatMoney(symbol string, d decimal.Decimal) string {
	neg := d.IsNegative()
	d = d.Abs()

	var text string
	if d.Equal(d.Truncate(0)) {
		text = d.Truncate(0).String()
	} else {
		text = d.StringFixed(2)
	}

	whole, frac, hasFrac := strings.Cut(text, ".")
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString(symbol)
	b.WriteString(groupIndian(whole))
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}

// FormatINR formats an amount in rupees.
func FormatINR(d decimal.Decimal) string {
	return FormatMoney(defaultSymbol, d)
}

func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]

	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	if head != "" {
		groups = append([]string{head}, groups...)
	}
	return strings.Join(groups, ",") + "," + tail
}
