// Package services provides the quotation engine: catalog lookup, the
// line-item store, totals, row numbering and exports.
package services

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DefaultTaxRate is the Peruvian IGV applied when no rate is configured.
const DefaultTaxRate = 0.18

// QuoteTotals holds unrounded totals; round only when presenting.
type QuoteTotals struct {
	Subtotal float64
	TaxRate  float64
	Tax      float64
	Total    float64
}

// NormalizeTaxRate interprets rates above 1 as percentages (18 → 0.18).
// Negative or non-finite rates fall back to DefaultTaxRate.
func NormalizeTaxRate(rate float64) float64 {
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate < 0 {
		return DefaultTaxRate
	}
	if rate > 1 {
		return rate / 100
	}
	return rate
}

// LineSubtotal is quantity times unit price for service lines and zero for
// header rows.
func LineSubtotal(item LineItem) float64 {
	if item.Kind != KindService {
		return 0
	}
	return item.Quantity * item.UnitPrice
}

// ComputeTotals sums service lines and applies the normalized tax rate.
func ComputeTotals(rows []LineItem, taxRate float64) QuoteTotals {
	rate := NormalizeTaxRate(taxRate)

	var subtotal float64
	for _, row := range rows {
		subtotal += LineSubtotal(row)
	}
	tax := subtotal * rate
	return QuoteTotals{
		Subtotal: subtotal,
		TaxRate:  rate,
		Tax:      tax,
		Total:    subtotal + tax,
	}
}

// ParseNumber coerces free-text numeric input: surrounding whitespace is
// trimmed, a decimal comma becomes a point, and anything unparseable is 0.
func ParseNumber(s string) float64 {
	v, ok := parseDecimal(s)
	if !ok {
		return 0
	}
	return v
}

// ParseFieldNumber parses a submitted form field. A blank value yields
// fallback; an unparseable one yields a FormatError naming the field.
func ParseFieldNumber(field, s string, fallback float64) (float64, error) {
	if strings.TrimSpace(s) == "" {
		return fallback, nil
	}
	v, ok := parseDecimal(s)
	if !ok {
		return 0, &FormatError{Field: field, Value: s}
	}
	return v, nil
}

// MaxDays bounds the day-count fields of a quotation.
const MaxDays = 3650

// ParseFieldDays parses a whole number of days. A blank value is 0; a
// fractional, negative or larger-than-MaxDays value is a FormatError.
func ParseFieldDays(field, s string) (int, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	v, ok := parseDecimal(s)
	if !ok || v != math.Trunc(v) || v < 0 || v > MaxDays {
		return 0, &FormatError{Field: field, Value: s}
	}
	return int(v), nil
}

func parseDecimal(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FormatFixed2 renders v with exactly two decimals and no grouping, the
// format of the hidden monto_total field.
func FormatFixed2(v float64) string {
	return fmt.Sprintf("%.2f", Round2(v))
}
