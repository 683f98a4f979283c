// Package money holds the decimal helpers used for every currency amount.
// Amounts are shopspring/decimal values end to end; float64 never touches a sum.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Places is the number of minor-unit digits of the store currency (centavos).
const Places = 2

var (
	hundred = decimal.NewFromInt(100)

	// MinorUnit is the smallest representable amount (Q0.01).
	MinorUnit = decimal.New(1, -Places)
)

// Round rounds d to the minor unit, half away from zero.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Sum adds all amounts and rounds the result to the minor unit.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return Round(total)
}

// Percent returns part / whole × 100 rounded to two decimals.
// A zero whole yields zero instead of dividing.
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred).Round(2)
}

// Average returns total / count rounded to the minor unit, zero when count is 0.
func Average(total decimal.Decimal, count int64) decimal.Decimal {
	if count == 0 {
		return decimal.Zero
	}
	return Round(total.Div(decimal.NewFromInt(count)))
}

// WithinTolerance reports whether a and b differ by at most one minor unit.
func WithinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(MinorUnit)
}

// Parse reads a decimal amount from user input and rejects values with more
// precision than the currency allows.
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("monto inválido %q: %w", s, err)
	}
	if !d.Equal(Round(d)) {
		return decimal.Zero, fmt.Errorf("monto inválido %q: máximo %d decimales", s, Places)
	}
	return d, nil
}

// Format renders d as a currency string, e.g. Format("Q", -1234.5) = "-Q1,234.50".
func Format(symbol string, d decimal.Decimal) string {
	fixed := Round(d).Abs().StringFixed(Places)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	sign := ""
	if Round(d).IsNegative() {
		sign = "-"
	}
	return sign + symbol + b.String() + "." + frac
}
