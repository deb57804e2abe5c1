// Package format renders sizes, durations and rates for people.
package format

import (
	"fmt"
	"strconv"
)

// HumanizeBytes converts a byte count into a human-readable string (e.g., "1.5 MB").
func HumanizeBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return strconv.FormatInt(b, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	// Use a fixed buffer to avoid allocation
	var buf [20]byte
	frac := float64(b) / float64(div)
	s := strconv.AppendFloat(buf[:0], frac, 'f', 1, 64)
	suffix := []string{"KB", "MB", "GB", "TB"}[exp]
	return string(s) + " " + suffix
}

// MB renders b in mebibytes with two decimals, e.g. "1.53 MB".
func MB(b int64) string {
	return fmt.Sprintf("%.2f MB", float64(b)/(1024*1024))
}

// SignedMB is MB with an explicit sign, for size differences.
func SignedMB(b int64) string {
	return fmt.Sprintf("%+.2f MB", float64(b)/(1024*1024))
}

// Duration renders seconds as m:ss; unknown (<= 0) renders as "?".
func Duration(seconds float64) string {
	if seconds <= 0 {
		return "?"
	}
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// Kbps renders a bits-per-second rate as "<N> kbps".
func Kbps(bps int64) string {
	if bps <= 0 {
		return "?"
	}
	return strconv.FormatInt(bps/1000, 10) + " kbps"
}
