package compliance

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatINR(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "₹0"},
		{"100", "₹100"},
		{"1000", "₹1,000"},
		{"22500", "₹22,500"},
		{"240000", "₹2,40,000"},
		{"1234567", "₹12,34,567"},
		{"2500.5", "₹2,500.50"},
		{"-1500", "-₹1,500"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatINR(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestTaxAmountRounding(t *testing.T) {
	tests := []struct {
		amount, rate, want string
	}{
		{"25000", "10", "2500"},
		{"12.345", "10", "1.23"},
		{"0.25", "10", "0.03"},
		{"333.33", "1", "3.33"},
		{"1000", "0", "0"},
	}

	for _, tt := range tests {
		got := TaxAmount(decimal.RequireFromString(tt.amount), decimal.RequireFromString(tt.rate))
		assert.Equal(t, tt.want, got.String(), "%s at %s%%", tt.amount, tt.rate)
	}
}
