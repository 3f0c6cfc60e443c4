// Package core provides the record types of the finance tracker together with
// money and date helpers shared by every other package.
//
// This file contains functions for parsing user-typed amounts and formatting
// amounts for display in the Brazilian real.
package core

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencySymbol is prefixed to every formatted amount.
const CurrencySymbol = "R$"

// nbsp separates the symbol from the digits, as pt-BR currency formatting does.
const nbsp = "\u00a0"

var ErrInvalidAmount = errors.New("invalid amount")

var decimalInput = regexp.MustCompile(`^[+-]?(\d+(\.\d+)?|\.\d+)$`)

// ParseError reports a numeric form field that could not be converted.
type ParseError struct {
	Input string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid amount %q", e.Input)
}

// Unwrap lets callers match parse failures with errors.Is(err, ErrInvalidAmount).
func (e *ParseError) Unwrap() error {
	return ErrInvalidAmount
}

// ParseDecimalInput converts a user-typed numeric string to a decimal.
//
// Both dot (12.34) and comma (12,34) decimal marks are accepted, but only one
// mark may appear. Signs are accepted syntactically; rejecting negative amounts
// is left to record validation.
//
// Examples:
//
//	ParseDecimalInput("12.34")  -> 12.34, nil
//	ParseDecimalInput(" 12,34") -> 12.34, nil
//	ParseDecimalInput("-5")     -> -5, nil
//	ParseDecimalInput("1.2.3")  -> 0, *ParseError
func ParseDecimalInput(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, &ParseError{Input: raw}
	}
	if strings.Count(s, ",")+strings.Count(s, ".") > 1 {
		return decimal.Zero, &ParseError{Input: raw}
	}
	s = strings.Replace(s, ",", ".", 1)
	if !decimalInput.MatchString(s) {
		return decimal.Zero, &ParseError{Input: raw}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &ParseError{Input: raw}
	}
	return d, nil
}

// FormatCurrency renders an amount the way pt-BR displays BRL values,
// e.g. "R$ 1.234,56". The output is for display only and is never parsed back.
func FormatCurrency(amount decimal.Decimal) string {
	rounded := amount.Round(2)
	intPart, frac, _ := strings.Cut(rounded.Abs().StringFixed(2), ".")
	s := CurrencySymbol + nbsp + groupThousands(intPart) + "," + frac
	if rounded.IsNegative() {
		return "-" + s
	}
	return s
}

// FormatDecimalComma renders an amount with two decimals, a decimal comma and
// no grouping ("1234,50"). Used by delimited exports.
func FormatDecimalComma(amount decimal.Decimal) string {
	return strings.Replace(amount.StringFixed(2), ".", ",", 1)
}

// FormatPercent renders a percentage with two decimals and a decimal comma ("12,50%").
func FormatPercent(p decimal.Decimal) string {
	return FormatDecimalComma(p) + "%"
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
