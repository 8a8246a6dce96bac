// Package utils provides formatting helpers for report and log output
package utils

import (
	"fmt"
	"time"
)

// FormatBytes converts bytes to human-readable format (e.g., "1.5 GB")
func FormatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// FormatFileSize formats a signed byte count, clamping negatives to zero
func FormatFileSize(size int64) string {
	if size < 0 {
		return "0 B"
	}
	return FormatBytes(uint64(size))
}

// FormatDuration rounds d for phase summaries: milliseconds below a second,
// tenths of a second below a minute, whole seconds above
func FormatDuration(d time.Duration) string {
	switch {
	case d < 0:
		return "0s"
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	case d < time.Minute:
		return d.Round(100 * time.Millisecond).String()
	default:
		return d.Round(time.Second).String()
	}
}

// FormatRate renders the throughput of bytes moved in d, e.g. "2.0 MB/s"
func FormatRate(bytes int64, d time.Duration) string {
	if bytes <= 0 || d <= 0 {
		return "0 B/s"
	}
	perSecond := float64(bytes) / d.Seconds()
	return FormatBytes(uint64(perSecond)) + "/s"
}
