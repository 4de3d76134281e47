package monitor

import (
	"fmt"
	"time"
)

// FormatRate formats an alerts-per-poll count as a per-minute rate.
func FormatRate(count float64, interval time.Duration) string {
	if interval <= 0 {
		return "0.0/min"
	}
	perMinute := count * float64(time.Minute) / float64(interval)
	return fmt.Sprintf("%.1f/min", perMinute)
}

// FormatPercentage formats a ratio (0-1) as a percentage.
func FormatPercentage(ratio float64) string {
	return fmt.Sprintf("%.0f%%", ratio*100)
}

// FormatSeconds formats a duration given in seconds as "X.Xs" or "Xm Ys".
func FormatSeconds(seconds float64) string {
	if seconds < 60 {
		return fmt.Sprintf("%.1fs", seconds)
	}
	d := time.Duration(seconds * float64(time.Second))
	return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
}

// FormatAge formats an elapsed duration compactly: "42s", "5m", "2h".
func FormatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
}

// SuccessRatio computes successes over total attempts, 1.0 when nothing
// has run yet.
func SuccessRatio(succeeded, failed int64) float64 {
	total := succeeded + failed
	if total == 0 {
		return 1.0
	}
	return float64(succeeded) / float64(total)
}
