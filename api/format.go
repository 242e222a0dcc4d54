/*
format.go - Currency display formatting

PURPOSE:
  Renders decimal values as Brazilian currency strings: "R$ 1.234,56",
  thousands separated by "." and two decimal places after ",". This is
  the only place display formatting happens - every computation upstream
  carries full-precision decimals, and nothing ever parses these strings
  back into numbers.
*/
package api

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatBRL renders a value rounded to two decimal places in the Brazilian
// display convention.
func FormatBRL(v decimal.Decimal) string {
	fixed := v.StringFixed(2)

	negative := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	intPart, fracPart, _ := strings.Cut(fixed, ".")

	var grouped strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(digit)
	}

	sign := ""
	if negative {
		sign = "-"
	}
	return "R$ " + sign + grouped.String() + "," + fracPart
}

// roundedFloat converts a decimal to the raw float the DTO layer exposes,
// rounded to two decimal places like the display form.
func roundedFloat(v decimal.Decimal) float64 {
	f, _ := v.Round(2).Float64()
	return f
}
