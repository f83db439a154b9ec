package utils

import (
	"fmt"
	"strconv"
	"time"
)

// Number renders n with comma grouping, e.g. 1234567 -> "1,234,567".
func Number(n int64) string {
	s := strconv.FormatInt(n, 10)
	start := 0
	if n < 0 {
		start = 1
	}
	if len(s)-start <= 3 {
		return s
	}

	out := make([]byte, 0, len(s)+(len(s)-start-1)/3)
	out = append(out, s[:start]...)
	for i := start; i < len(s); i++ {
		if i > start && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}
	return string(out)
}

// Duration renders an elapsed run time at a precision matching its scale:
// sub-second runs collapse to "0s", sub-hour runs keep tenths of a second,
// anything longer drops to whole minutes.
func Duration(d time.Duration) string {
	switch {
	case d < time.Second:
		return "0s"
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Hour:
		m := int(d / time.Minute)
		return fmt.Sprintf("%dm%.1fs", m, (d - time.Duration(m)*time.Minute).Seconds())
	default:
		h := int(d / time.Hour)
		return fmt.Sprintf("%dh%dm", h, int(d/time.Minute)%60)
	}
}

// Rate renders a per-second throughput for count items produced over
// elapsed, e.g. "412.5/s" or "1.2K/s". A zero elapsed reads as no
// measurable rate.
func Rate(count int64, elapsed time.Duration) string {
	secs := elapsed.Seconds()
	if secs <= 0 {
		return "-"
	}
	r := float64(count) / secs
	switch {
	case r >= 1e6:
		return fmt.Sprintf("%.1fM/s", r/1e6)
	case r >= 1e3:
		return fmt.Sprintf("%.1fK/s", r/1e3)
	default:
		return fmt.Sprintf("%.1f/s", r)
	}
}
