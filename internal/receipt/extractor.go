// Package receipt turns recognized receipt text into transaction form values.
package receipt

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"financepro/internal/core"
)

// PlaceholderDescription is written into the form after every scan.
const PlaceholderDescription = "Compra (OCR)"

var (
	// An optional currency prefix, then either a dot-grouped integer with a
	// comma and two decimals, or a plain integer with a dot and two decimals.
	amountPattern = regexp.MustCompile(`(?:(?:R|US)?\$|€|£)?\s?(?:\b(?P<comma>\d{1,3}(?:\.\d{3})*,\d{2})\b|\b(?P<dot>\d+\.\d{2})\b)`)

	// Day, month and year separated by '/', '-' or '.'.
	datePattern = regexp.MustCompile(`\b(\d{1,2})[/\-.](\d{1,2})[/\-.](\d{4}|\d{2})\b`)

	commaGroup = amountPattern.SubexpIndex("comma")
	dotGroup   = amountPattern.SubexpIndex("dot")
)

// Extraction is a best-effort reading of a receipt. Either field may be absent.
type Extraction struct {
	Amount decimal.NullDecimal `json:"amount"`
	Date   core.Date           `json:"date"`
}

// Extract reads the largest monetary amount and the first valid date from
// text. Finding nothing is a normal outcome.
//
// Two-digit years are read as 20yy, so receipts from before 2000 or after
// 2099 are misdated.
func Extract(text string) Extraction {
	return Extraction{
		Amount: extractAmount(text),
		Date:   extractDate(text),
	}
}

// extractAmount returns the maximum amount found. Receipts list line items
// below their total, so the largest value is taken to be the total.
func extractAmount(text string) decimal.NullDecimal {
	var best decimal.NullDecimal
	for _, m := range amountPattern.FindAllStringSubmatch(text, -1) {
		v, ok := normalizeAmount(m)
		if !ok {
			continue
		}
		if !best.Valid || v.GreaterThan(best.Decimal) {
			best = decimal.NewNullDecimal(v)
		}
	}
	return best
}

func normalizeAmount(m []string) (decimal.Decimal, bool) {
	raw := m[dotGroup]
	if s := m[commaGroup]; s != "" {
		raw = strings.Replace(strings.ReplaceAll(s, ".", ""), ",", ".", 1)
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return v, true
}

// extractDate returns the first match that is a real calendar date.
func extractDate(text string) core.Date {
	for _, m := range datePattern.FindAllStringSubmatch(text, -1) {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		if len(m[3]) == 2 {
			year += 2000
		}
		if !validDate(year, month, day) {
			continue
		}
		return core.NewDate(year, month, day)
	}
	return core.Date{}
}

func validDate(year, month, day int) bool {
	if month < 1 || month > 12 || day < 1 {
		return false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return t.Day() == day
}

// Prefill applies an extraction to a transaction form. The description is
// always replaced; the amount only when one was found; the date falls back
// to today.
func Prefill(form core.TransactionForm, e Extraction, today core.Date) core.TransactionForm {
	form.Description = PlaceholderDescription
	if e.Amount.Valid {
		form.Amount = e.Amount.Decimal.StringFixed(2)
	}
	if e.Date.IsEmpty() {
		form.Date = today.String()
	} else {
		form.Date = e.Date.String()
	}
	return form
}
