package report

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"liquidity-lag/internal/models"
)

// DefaultDateLayout is used when no date format is configured.
const DefaultDateLayout = "2006-01-02"

// FormatCorrelation formats a coefficient with sign and four decimals.
// Undefined coefficients are shown as "undefined".
func FormatCorrelation(r float64) string {
	if !models.IsDefined(r) {
		return "undefined"
	}
	return fmt.Sprintf("%+.4f", r)
}

// FormatValue formats a series value with precision suited to its magnitude.
func FormatValue(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	if math.Abs(v) >= 100 {
		return fmt.Sprintf("%.2f", v)
	}
	return fmt.Sprintf("%.4f", v)
}

// FormatDate formats t in UTC using layout, or DefaultDateLayout if empty.
func FormatDate(t time.Time, layout string) string {
	if t.IsZero() {
		return "-"
	}
	if layout == "" {
		layout = DefaultDateLayout
	}
	return t.UTC().Format(layout)
}

// FormatDuration formats a duration in human-readable form.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}

// Bar renders |r| as a horizontal bar of at most width cells.
func Bar(r float64, width int) string {
	if !models.IsDefined(r) || width <= 0 {
		return ""
	}
	n := int(math.Round(math.Min(math.Abs(r), 1) * float64(width)))
	return strings.Repeat("█", n)
}

// PadRight pads s with spaces to length runes.
func PadRight(s string, length int) string {
	n := utf8.RuneCountInString(s)
	if n >= length {
		return s
	}
	return s + strings.Repeat(" ", length-n)
}

// PadLeft pads s with leading spaces to length runes.
func PadLeft(s string, length int) string {
	n := utf8.RuneCountInString(s)
	if n >= length {
		return s
	}
	return strings.Repeat(" ", length-n) + s
}
