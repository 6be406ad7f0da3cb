package countdown

import (
	"fmt"
	"time"
)

// Sentinel is shown when there is nothing left to count down.
const Sentinel = "00 : 00 : 00"

// Remaining returns the whole seconds from now until target, rounded down.
func Remaining(target, now time.Time) int64 {
	d := target.Sub(now)
	secs := int64(d / time.Second)
	if d < 0 && d%time.Second != 0 {
		secs--
	}
	return secs
}

// Format renders a remaining duration as "HH : MM : SS". Hours are not
// wrapped at 24. Zero or negative durations render as Sentinel.
func Format(d time.Duration) string {
	return formatSeconds(int64(d / time.Second))
}

func formatSeconds(secs int64) string {
	if secs <= 0 {
		return Sentinel
	}
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d : %02d : %02d", h, m, s)
}
