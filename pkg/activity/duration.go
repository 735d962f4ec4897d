package activity

import "fmt"

// FormatDuration renders whole seconds as a compact human-readable
// string, e.g. "45s", "3m 20s", "1h 5m 0s".
func FormatDuration(seconds int64) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	if seconds < 3600 {
		return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
	}
	return fmt.Sprintf("%dh %dm %ds", seconds/3600, (seconds%3600)/60, seconds%60)
}
