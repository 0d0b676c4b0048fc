package model

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Cents is a signed monetary value in integer cents. No floating point
// is carried through any monetary computation.
type Cents int64

var hundred = decimal.NewFromInt(100)

// ParseAmount converts a decimal amount string to cents. At most two
// fractional digits are accepted; the scaled value is truncated toward
// zero, matching the engine's integer-division rounding everywhere else.
func ParseAmount(s string) (Cents, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	if d.Exponent() < -2 {
		return 0, fmt.Errorf("amount %q has more than two fractional digits", s)
	}
	return Cents(d.Mul(hundred).IntPart()), nil
}

// String renders cents as a decimal with exactly two fractional digits.
func (c Cents) String() string {
	a := c
	sign := ""
	if a < 0 {
		sign = "-"
		a = -a
	}
	return fmt.Sprintf("%s%d.%02d", sign, a/100, a%100)
}
