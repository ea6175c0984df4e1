package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		err error
	}{
		{"1234", "1234", nil},
		{"12,50", "12.5", nil},
		{"12.50", "12.5", nil},
		{"12,345.67", "12345.67", nil},
		{"12.345,67", "12345.67", nil},
		{"1.500,00", "1500", nil},
		{"1.234.567,89", "1234567.89", nil},
		{"1,234,567.89", "1234567.89", nil},
		{" 2.50 ", "2.5", nil},
		{"1 500,25", "1500.25", nil},
		{"€ 10,00", "10", nil},
		{"0", "0", nil},
		{"", "", ErrEmptyAmount},
		{"   ", "", ErrEmptyAmount},
		{"-5", "", ErrNegativeAmount},
		{" -1,00", "", ErrNegativeAmount},
		{"abc", "", ErrInvalidAmountFormat},
		{"1.2.3", "", ErrInvalidAmountFormat},
		{"1,234,567", "", ErrInvalidAmountFormat},
		{".", "", ErrInvalidAmountFormat},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.err != nil {
			if !errors.Is(err, tc.err) {
				t.Fatalf("%q expected %v, got %v (value %s)", tc.in, tc.err, err, got)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q unexpected error: %v", tc.in, err)
		}
		if !got.Equal(decimal.RequireFromString(tc.out)) {
			t.Fatalf("%q expected %s, got %s", tc.in, tc.out, got)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
	}{
		{"1500", "1.500,00"},
		{"10", "10,00"},
		{"0", "0,00"},
		{"0.5", "0,50"},
		{"999.999", "1.000,00"},
		{"1234567.891", "1.234.567,89"},
		{"-250.5", "-250,50"},
		{"-0.001", "0,00"},
		{"123", "123,00"},
		{"123456", "123.456,00"},
		{"99999999999999999999", "99.999.999.999.999.999.999,00"},
		{"9223372036854775808.5", "9.223.372.036.854.775.808,50"},
	}
	for _, tc := range cases {
		got := FormatAmount(decimal.RequireFromString(tc.in))
		if got != tc.out {
			t.Fatalf("FormatAmount(%s) = %q, want %q", tc.in, got, tc.out)
		}
	}
}

func TestAmountRoundTrip(t *testing.T) {
	values := []string{"0", "0.01", "10", "12.5", "999.99", "1000", "1500", "12345.67", "1000000.1",
		"9223372036854775807", "9223372036854775808.50", "99999999999999999999", "123456789012345678901234.56"}
	for _, v := range values {
		want := decimal.RequireFromString(v)
		got, err := ParseAmount(FormatAmount(want))
		if err != nil {
			t.Fatalf("round trip %s: %v", v, err)
		}
		if !got.Equal(want) {
			t.Fatalf("round trip %s: got %s via %q", v, got, FormatAmount(want))
		}
	}
}
