package services

import (
	"fmt"
	"math"
	"strings"
)

// DefaultCurrencySymbol is the Peruvian sol.
const DefaultCurrencySymbol = "S/"

// FormatCurrency formats amount as "S/ 1,234,567.89": thousands separated by
// commas, always two decimals, rounded only here.
func FormatCurrency(symbol string, amount float64) string {
	negative := false
	if amount < 0 {
		negative = true
		amount = -amount
	}

	raw := fmt.Sprintf("%.2f", Round2(amount))
	parts := strings.SplitN(raw, ".", 2)
	result := groupThousands(parts[0]) + "." + parts[1]
	if symbol != "" {
		result = symbol + " " + result
	}
	if negative && Round2(amount) != 0 {
		result = "-" + result
	}
	return result
}

// FormatAmount is FormatCurrency without a symbol, as shown in the totals
// footer of the editor.
func FormatAmount(amount float64) string {
	return FormatCurrency("", amount)
}

// groupThousands inserts a comma every three digits from the right.
func groupThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	var b strings.Builder
	lead := n % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// FormatQty prints whole quantities without decimals and fractional ones
// with two.
func FormatQty(qty float64) string {
	if qty == math.Trunc(qty) {
		return fmt.Sprintf("%.0f", qty)
	}
	return fmt.Sprintf("%.2f", qty)
}

// FormatPercent prints a tax fraction as a whole percentage ("18%").
func FormatPercent(rate float64) string {
	pct := NormalizeTaxRate(rate) * 100
	if pct == math.Trunc(pct) {
		return fmt.Sprintf("%.0f%%", pct)
	}
	return fmt.Sprintf("%.1f%%", pct)
}
