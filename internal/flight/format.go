package flight

import (
	"fmt"
	"time"
)

// FormatDuration renders a duration in seconds as "Xm Ys" for history rows.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
}

// FormatClock renders an elapsed duration as "MM:SS" for the live timer.
func FormatClock(d time.Duration) string {
	s := int(d.Seconds())
	if s < 0 {
		s = 0
	}
	return fmt.Sprintf("%02d:%02d", s/60, s%60)
}
