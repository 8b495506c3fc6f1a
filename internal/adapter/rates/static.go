package rates

import (
	"context"
	"strings"

	"currency-wallet/pkg/apperror"

	"github.com/shopspring/decimal"
)

// StaticRateSource implements ports.RateSource from a fixed pairwise table.
// It is the default provider: deterministic, dependency-free, suitable for
// development and for deployments without an API key.
type StaticRateSource struct {
	table map[string]map[string]decimal.Decimal
}

// NewStaticRateSource creates the built-in rate table covering
// USD, INR, EUR, GBP and JPY.
func NewStaticRateSource() *StaticRateSource {
	mustRow := func(pairs map[string]string) map[string]decimal.Decimal {
		row := make(map[string]decimal.Decimal, len(pairs))
		for code, rate := range pairs {
			row[code] = decimal.RequireFromString(rate)
		}
		return row
	}
	return &StaticRateSource{
		table: map[string]map[string]decimal.Decimal{
			"USD": mustRow(map[string]string{"INR": "83", "EUR": "0.91", "GBP": "0.78", "JPY": "142"}),
			"INR": mustRow(map[string]string{"USD": "0.012", "EUR": "0.011", "GBP": "0.0094", "JPY": "1.71"}),
			"EUR": mustRow(map[string]string{"USD": "1.10", "INR": "91", "GBP": "0.86", "JPY": "156"}),
			"GBP": mustRow(map[string]string{"USD": "1.28", "INR": "106", "EUR": "1.16", "JPY": "181"}),
			"JPY": mustRow(map[string]string{"USD": "0.0070", "INR": "0.58", "EUR": "0.0064", "GBP": "0.0055"}),
		},
	}
}

// Convert multiplies amount by the tabled rate for the pair.
func (s *StaticRateSource) Convert(_ context.Context, from, to string, amount decimal.Decimal) (decimal.Decimal, error) {
	from = strings.ToUpper(from)
	to = strings.ToUpper(to)
	if from == to {
		return amount, nil
	}
	rate, ok := s.table[from][to]
	if !ok {
		return decimal.Zero, apperror.ErrUnsupportedPair(from, to)
	}
	return amount.Mul(rate), nil
}
