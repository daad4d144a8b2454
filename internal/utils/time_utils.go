package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var units = []struct {
	suffix string
	unit   time.Duration
}{
	{"ms", time.Millisecond},
	{"s", time.Second},
	{"m", time.Minute},
	{"h", time.Hour},
	{"d", 24 * time.Hour},
}

// ParseStringTime parses config durations such as "500ms", "10s", "30m", "48h" or "2d".
func ParseStringTime(timeString string) (time.Duration, error) {
	value := strings.ToLower(strings.TrimSpace(timeString))
	for _, u := range units {
		cutString, found := strings.CutSuffix(value, u.suffix)
		if !found {
			continue
		}
		number, err := strconv.Atoi(cutString)
		if err != nil {
			return 0, fmt.Errorf("invalid time format %q: %w", timeString, err)
		}
		if number < 0 {
			return 0, fmt.Errorf("invalid time format %q: negative duration", timeString)
		}
		return time.Duration(number) * u.unit, nil
	}
	return 0, fmt.Errorf("invalid time format: %q", timeString)
}

// ParseStringTimeOr falls back to def when timeString is empty or invalid.
func ParseStringTimeOr(timeString string, def time.Duration) time.Duration {
	if timeString == "" {
		return def
	}
	d, err := ParseStringTime(timeString)
	if err != nil {
		return def
	}
	return d
}

// FormatUptime renders a duration as "1d 2h 3m 4s".
func FormatUptime(d time.Duration) string {
	d = d.Truncate(time.Second)
	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d / time.Second
	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}
