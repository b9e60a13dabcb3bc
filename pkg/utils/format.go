// Package utils provides small formatting and retry helpers shared by
// the CLI and reporters.
package utils

import (
	"fmt"
	"strconv"
)

// FormatPrice renders a price at the asset's tick precision. Precision 0
// renders a whole number.
func FormatPrice(value float64, precision int) string {
	if precision < 0 {
		precision = 0
	}
	return strconv.FormatFloat(value, 'f', precision, 64)
}

// FormatQty renders an inventory size, trimming trailing zeros.
func FormatQty(qty float64) string {
	s := strconv.FormatFloat(qty, 'f', -1, 64)
	return s
}

// FormatPnL renders a signed profit figure with an explicit plus sign
// on gains.
func FormatPnL(pnl float64) string {
	if pnl >= 0 {
		return fmt.Sprintf("+%.2f", pnl)
	}
	return fmt.Sprintf("%.2f", pnl)
}

// FormatPercent renders a percentage with two decimals.
func FormatPercent(value float64) string {
	return fmt.Sprintf("%.2f%%", value)
}
