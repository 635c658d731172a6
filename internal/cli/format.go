// Package cli provides formatting and rendering utilities for terminal
// output.
package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FormatAmount renders a money value with the currency symbol.
// e.g., 12.3 -> "$12.30", -5 -> "-$5.00"
func FormatAmount(v decimal.Decimal, symbol string) string {
	if v.IsNegative() {
		return "-" + symbol + v.Neg().StringFixed(2)
	}
	return symbol + v.StringFixed(2)
}

// FormatDate renders a calendar day.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// FormatClock renders the time of day of an instant.
func FormatClock(t time.Time) string {
	return t.Format("15:04")
}

// FormatDayOfWeek returns a 3-letter day abbreviation from a weekday number.
func FormatDayOfWeek(weekday int) string {
	days := []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	if weekday >= 0 && weekday < 7 {
		return days[weekday]
	}
	return "???"
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// TruncateToken shortens an opaque token for display.
func TruncateToken(tok string) string {
	if len(tok) <= 8 {
		return tok
	}
	return fmt.Sprintf("%s…", tok[:8])
}
