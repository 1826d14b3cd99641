package domain

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ParsePrice extracts a decimal amount from a currency-formatted string such
// as "₹1,299.00" or "Rs. 499". Currency symbols and prefixes before the first
// digit are skipped, thousands separators are dropped, and parsing stops at the
// first character that cannot belong to the amount. Anything unparseable
// yields 0.
func ParsePrice(raw string) float64 {
	start := strings.IndexFunc(raw, unicode.IsDigit)
	if start < 0 {
		return 0
	}

	var b strings.Builder
	for _, r := range raw[start:] {
		switch {
		case r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r == ',', r == '_', r == ' ', r == '\u00a0':
			// thousands separators
		default:
			return parseAmount(b.String())
		}
	}
	return parseAmount(b.String())
}

func parseAmount(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimRight(s, "."), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// FormatPrice renders an amount the way the storefront displays it.
func FormatPrice(v float64) string {
	return "₹" + strconv.FormatFloat(v, 'f', 2, 64)
}
