// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts typed by users or
// read back from the spreadsheet, and for rendering them in the European
// display format used by the stored rows.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseAmount converts free-form amount text into a canonical decimal.
//
// Both European (1.234,56) and US (1,234.56) separator conventions are
// accepted. When both separators appear, the rightmost one is the decimal
// separator and the other one groups thousands. Spaces are thousands
// separators and are dropped. Negative input is rejected.
//
// Examples:
//
//	ParseAmount("12.345,67") -> 12345.67
//	ParseAmount("12,345.67") -> 12345.67
//	ParseAmount("12,50")     -> 12.5
//	ParseAmount("1234")      -> 1234
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, ErrEmptyAmount
	}
	if strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrNegativeAmount
	}

	s = strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) || r == '.' || r == ',' {
			return r
		}
		return -1
	}, s)

	s = normalizeSeparators(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmountFormat
	}
	return d, nil
}

// normalizeSeparators rewrites s so that "." is the only separator left and
// it marks the decimal position.
func normalizeSeparators(s string) string {
	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	switch {
	case lastComma >= 0 && lastDot < 0:
		return strings.ReplaceAll(s, ",", ".")
	case lastDot >= 0 && lastComma < 0:
		return s
	case lastComma >= 0 && lastDot >= 0:
		if lastDot > lastComma {
			return strings.ReplaceAll(s, ",", "")
		}
		s = strings.ReplaceAll(s, ".", "")
		return strings.ReplaceAll(s, ",", ".")
	default:
		return s
	}
}

// FormatAmount renders v with two decimals in the European convention,
// e.g. 1500 -> "1.500,00". Grouping works on the digit string, so there is
// no upper bound on the amount.
func FormatAmount(v decimal.Decimal) string {
	fixed := v.Abs().StringFixed(2)
	intPart, fracPart, _ := strings.Cut(fixed, ".")

	out := groupThousands(intPart, '.') + "," + fracPart
	if v.IsNegative() && out != "0,00" {
		return "-" + out
	}
	return out
}

// groupThousands inserts sep every three digits from the right.
func groupThousands(digits string, sep byte) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	b.Grow(len(digits) + len(digits)/3)
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte(sep)
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
