package report

import (
	"fmt"
	"math"
)

// FormatCurrency renders a USD amount with a B, M or K suffix.
func FormatCurrency(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	a := math.Abs(v)
	switch {
	case a >= 1e9:
		return fmt.Sprintf("$%.2f B", v/1e9)
	case a >= 1e6:
		return fmt.Sprintf("$%.2f M", v/1e6)
	case a >= 1e3:
		return fmt.Sprintf("$%.2f K", v/1e3)
	default:
		return fmt.Sprintf("$%.2f", v)
	}
}

// FormatScore renders a metric with four significant digits.
func FormatScore(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%.4g", v)
}

// FormatPercent renders a fraction as a percentage.
func FormatPercent(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", v*100)
}
