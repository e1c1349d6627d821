package utils

import (
	"errors"
	"strings"
	"time"
)

const DefaultDateFormat = "2006-01-02"

const dateTimeFormat = "2006-01-02 15:04:05"

// ErrUnparsableDate is returned when no supported layout matches.
var ErrUnparsableDate = errors.New("unparsable date")

// Accepted input layouts, tried in order. Slash dates are month-first.
var dateLayouts = []string{
	DefaultDateFormat,
	dateTimeFormat,
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006/01/02",
	"01/02/2006",
	"02.01.2006",
	"20060102",
}

// ParseDate parses a date string in any supported layout.
func ParseDate(dateStr string) (time.Time, error) {
	s := strings.TrimSpace(dateStr)
	if s == "" {
		return time.Time{}, ErrUnparsableDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrUnparsableDate
}

// ParseDateOrZero returns the zero time when dateStr cannot be parsed.
func ParseDateOrZero(dateStr string) time.Time {
	t, err := ParseDate(dateStr)
	if err != nil {
		return time.Time{}
	}
	return t
}

// FormatDate writes a date without a time part when the time is midnight.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(DefaultDateFormat)
	}
	return t.Format(dateTimeFormat)
}

// Quarter returns the calendar quarter (1-4) of t.
func Quarter(t time.Time) int {
	return (int(t.Month())-1)/3 + 1
}
