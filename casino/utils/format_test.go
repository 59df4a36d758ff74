package utils

import (
	"testing"
	"time"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		name string
		n    int64
		want string
	}{
		{"Zero", 0, "0"},
		{"Small", 999, "999"},
		{"Thousand", 1000, "1,000"},
		{"Million", 1_234_567, "1,234,567"},
		{"Negative", -9_876_543, "-9,876,543"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatNumber(tt.n); got != tt.want {
				t.Errorf("FormatNumber(%d) = %q, want %q", tt.n, got, tt.want)
			}
		})
	}
}

func TestFormatSigned(t *testing.T) {
	tests := []struct {
		name string
		n    int64
		want string
	}{
		{"Positive", 1500, "+1,500"},
		{"Negative", -1500, "-1,500"},
		{"Zero", 0, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatSigned(tt.n); got != tt.want {
				t.Errorf("FormatSigned(%d) = %q, want %q", tt.n, got, tt.want)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name string
		d    time.Duration
		want string
	}{
		{"Seconds", 45 * time.Second, "45s"},
		{"MinutesSeconds", 5*time.Minute + 3*time.Second, "5m 3s"},
		{"HoursMinutes", 2*time.Hour + 15*time.Minute, "2h 15m"},
		{"NegativeClampsToZero", -time.Minute, "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatDuration(tt.d); got != tt.want {
				t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
			}
		})
	}
}
