package utils

import (
	"testing"
	"time"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		name     string
		bytes    uint64
		expected string
	}{
		{"zero bytes", 0, "0 B"},
		{"small bytes", 500, "500 B"},
		{"one KB", 1024, "1.0 KB"},
		{"1.5 KB", 1536, "1.5 KB"},
		{"one MB", 1024 * 1024, "1.0 MB"},
		{"one GB", 1024 * 1024 * 1024, "1.0 GB"},
		{"one TB", 1024 * 1024 * 1024 * 1024, "1.0 TB"},
		{"mixed size", 1536 * 1024 * 1024, "1.5 GB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatBytes(tt.bytes)
			if result != tt.expected {
				t.Errorf("FormatBytes(%d) = %q, want %q", tt.bytes, result, tt.expected)
			}
		})
	}
}

func TestFormatFileSize(t *testing.T) {
	tests := []struct {
		name     string
		size     int64
		expected string
	}{
		{"zero", 0, "0 B"},
		{"negative", -100, "0 B"},
		{"small", 500, "500 B"},
		{"one KB", 1024, "1.0 KB"},
		{"one MB", 1024 * 1024, "1.0 MB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatFileSize(tt.size)
			if result != tt.expected {
				t.Errorf("FormatFileSize(%d) = %q, want %q", tt.size, result, tt.expected)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name     string
		d        time.Duration
		expected string
	}{
		{"negative", -time.Second, "0s"},
		{"sub second", 250*time.Millisecond + 400*time.Microsecond, "250ms"},
		{"seconds", 1234 * time.Millisecond, "1.2s"},
		{"minutes", 90*time.Second + 400*time.Millisecond, "1m30s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatDuration(tt.d); got != tt.expected {
				t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.expected)
			}
		})
	}
}

func TestFormatRate(t *testing.T) {
	tests := []struct {
		name     string
		bytes    int64
		d        time.Duration
		expected string
	}{
		{"nothing moved", 0, time.Second, "0 B/s"},
		{"zero duration", 100, 0, "0 B/s"},
		{"bytes", 1024, 2 * time.Second, "512 B/s"},
		{"megabytes", 4 * 1024 * 1024, 2 * time.Second, "2.0 MB/s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatRate(tt.bytes, tt.d); got != tt.expected {
				t.Errorf("FormatRate(%d, %v) = %q, want %q", tt.bytes, tt.d, got, tt.expected)
			}
		})
	}
}
