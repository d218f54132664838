package util

import (
	"fmt"
	"strings"
	"time"
)

// dateLayouts are tried in order. The dotted layout is the raw table file format.
var dateLayouts = []string{
	"2006.01.02",
	time.DateOnly,
	"2006/01/02",
	time.RFC3339,
}

// ParseDate parses a calendar date and returns it at UTC midnight.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return TruncateDay(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

// TruncateDay returns the calendar date of t, as seen in its location, at UTC midnight.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
