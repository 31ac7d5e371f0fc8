package domain

import "fmt"

// FormatTime formats seconds as m:ss.
func FormatTime(seconds uint64) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// FormatRemainingTime formats seconds as a negative m:ss. The left-to-right
// mark keeps the minus sign in front in right-to-left locales.
func FormatRemainingTime(seconds uint64) string {
	return "\u200e\u2212" + FormatTime(seconds)
}

// FormatQueueRemaining describes how long the rest of the queue plays for.
func FormatQueueRemaining(seconds uint64) string {
	minutes := seconds / 60
	hours := minutes / 60
	minutes %= 60

	if hours == 0 {
		return plural(minutes, "minute") + " remaining"
	}
	return plural(hours, "hour") + " " + plural(minutes, "minute") + " remaining"
}

func plural(n uint64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
