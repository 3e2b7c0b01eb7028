package utils

import (
	"fmt"
	"time"
)

// TimeAgo renders a coarse Russian relative time ("5 мин. назад").
func TimeAgo(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	seconds := int(time.Since(t).Seconds())
	switch {
	case seconds < 60:
		return "только что"
	case seconds < 3600:
		return fmt.Sprintf("%d мин. назад", seconds/60)
	case seconds < 86400:
		return fmt.Sprintf("%d ч. назад", seconds/3600)
	case seconds < 30*86400:
		return fmt.Sprintf("%d дн. назад", seconds/86400)
	}
	return t.Format("02.01.2006")
}

// Truncate cuts s to at most n runes, appending an ellipsis when cut.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
