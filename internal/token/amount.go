package token

import (
	"strings"

	"github.com/holiman/uint256"
)

// Unit returns 10^decimals, the number of base units in one whole token.
func Unit(decimals uint8) *uint256.Int {
	return new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(uint64(decimals)))
}

// ParseAmount converts a decimal token amount such as "0.3" into base units.
// Negative, malformed, over-precise or overflowing input is KindInvalidAmount.
func ParseAmount(s string, decimals uint8) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	whole, frac, hasDot := strings.Cut(s, ".")
	if whole == "" && frac == "" {
		return nil, fail(KindInvalidAmount, "parse", zeroAddress)
	}
	if hasDot && frac == "" {
		return nil, fail(KindInvalidAmount, "parse", zeroAddress)
	}
	if !digitsOnly(whole) || !digitsOnly(frac) || len(frac) > int(decimals) {
		return nil, fail(KindInvalidAmount, "parse", zeroAddress)
	}
	if whole == "" {
		whole = "0"
	}

	digits := strings.TrimLeft(whole+frac+strings.Repeat("0", int(decimals)-len(frac)), "0")
	if digits == "" {
		return new(uint256.Int), nil
	}
	v, err := uint256.FromDecimal(digits)
	if err != nil {
		return nil, fail(KindInvalidAmount, "parse", zeroAddress)
	}
	return v, nil
}

// FormatAmount renders base units as a decimal token amount with trailing
// zeros trimmed: 7*10^17 with 18 decimals is "0.7".
func FormatAmount(v *uint256.Int, decimals uint8) string {
	if v == nil {
		return "0"
	}
	s := v.Dec()
	if decimals == 0 {
		return s
	}
	d := int(decimals)
	if len(s) <= d {
		s = strings.Repeat("0", d-len(s)+1) + s
	}
	whole, frac := s[:len(s)-d], strings.TrimRight(s[len(s)-d:], "0")
	if frac == "" {
		return whole
	}
	return whole + "." + frac
}

func digitsOnly(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
