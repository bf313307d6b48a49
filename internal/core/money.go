// Package core provides money parsing and handling utilities.
//
// Amounts are carried as shopspring decimals so that budget arithmetic and
// currency conversion never accumulate binary floating point error.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// maxAmountScale is the number of fractional digits kept when parsing user input.
const maxAmountScale = 4

var hundred = decimal.NewFromInt(100)

// ParseAmount converts a user supplied decimal string to a positive amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// half-up beyond four fractional digits. Signs, zero and malformed input are
// rejected with a validation error.
//
// Examples:
//
//	ParseAmount("12.34")   -> 12.34, nil
//	ParseAmount("12,34")   -> 12.34, nil
//	ParseAmount("0.00005") -> 0.0001, nil
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, Validationf("amount is required")
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, Validationf("invalid amount %q: must be a positive number", s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, Validationf("invalid amount %q", s)
	}
	d = d.Round(maxAmountScale)
	if !d.IsPositive() {
		return decimal.Zero, Validationf("invalid amount %q: must be greater than zero", s)
	}
	return d, nil
}

// Percent returns part/whole*100, or zero when whole is not positive.
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}
