package utils

import (
	"testing"
	"time"
)

func TestParseStringTime(t *testing.T) {
	tests := []struct {
		timeString string
		expected   time.Duration
	}{
		{"10s", 10 * time.Second},
		{"20M", 20 * time.Minute},
		{"48h", 48 * time.Hour},
		{"2d", 2 * time.Hour * 24},
		{"250ms", 250 * time.Millisecond},
		{" 30m ", 30 * time.Minute},
	}

	for _, test := range tests {
		result, err := ParseStringTime(test.timeString)
		if err != nil {
			t.Errorf("ParseStringTime(%s): unexpected error %v", test.timeString, err)
			continue
		}
		if result != test.expected {
			t.Errorf("ParseStringTime(%s): expected %v, got %v", test.timeString, test.expected, result)
		}
	}
}

func TestParseStringTimeInvalid(t *testing.T) {
	for _, input := range []string{"", "abc", "10", "1x", "-5s", "s"} {
		if _, err := ParseStringTime(input); err == nil {
			t.Errorf("ParseStringTime(%q): expected error", input)
		}
	}
}

func TestParseStringTimeOr(t *testing.T) {
	if got := ParseStringTimeOr("", time.Minute); got != time.Minute {
		t.Errorf("expected fallback, got %v", got)
	}
	if got := ParseStringTimeOr("bogus", time.Minute); got != time.Minute {
		t.Errorf("expected fallback, got %v", got)
	}
	if got := ParseStringTimeOr("5s", time.Minute); got != 5*time.Second {
		t.Errorf("expected 5s, got %v", got)
	}
}

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		in       time.Duration
		expected string
	}{
		{90 * time.Second, "0h 1m 30s"},
		{26*time.Hour + 5*time.Second, "1d 2h 0m 5s"},
		{1500 * time.Millisecond, "0h 0m 1s"},
	}
	for _, tt := range tests {
		if got := FormatUptime(tt.in); got != tt.expected {
			t.Errorf("FormatUptime(%v): expected %q, got %q", tt.in, tt.expected, got)
		}
	}
}
