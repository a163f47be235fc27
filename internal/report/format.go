package report

import (
	"fmt"
	"strings"
	"time"
)

// FormatTokens formats token counts with thousand separators.
func FormatTokens(n int64) string {
	if n < 0 {
		return "-" + FormatTokens(-n)
	}
	s := fmt.Sprintf("%d", n)
	parts := []string{}
	for i := len(s); i > 0; i -= 3 {
		start := i - 3
		if start < 0 {
			start = 0
		}
		parts = append([]string{s[start:i]}, parts...)
	}
	return strings.Join(parts, ",")
}

// FormatDuration renders whole minutes as "Xh Ym", or "Ym" under an hour.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	minutes := int64(d / time.Minute)
	hours := minutes / 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes%60)
	}
	return fmt.Sprintf("%dm", minutes)
}

// FormatTime renders a timestamp the way block reports show it.
func FormatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05 UTC")
}

func minutes(m float64) time.Duration {
	return time.Duration(m * float64(time.Minute))
}
