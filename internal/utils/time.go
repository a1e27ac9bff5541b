package utils

import (
	"fmt"
	"strings"
	"time"
)

const (
	layoutDate     = "2006-01-02"
	layoutDateTime = "2006-01-02 15:04:05"
)

// ParseDate parses YYYY-MM-DD in local timezone.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(layoutDate, strings.TrimSpace(s), time.Local)
}

// ParseDateRange turns optional from/to query values into a half-open range.
// "to" is inclusive of the whole day, so the returned upper bound is the next midnight.
func ParseDateRange(from, to string) (*time.Time, *time.Time, error) {
	var start, end *time.Time
	if strings.TrimSpace(from) != "" {
		t, err := ParseDate(from)
		if err != nil {
			return nil, nil, fmt.Errorf("from must be YYYY-MM-DD")
		}
		start = &t
	}
	if strings.TrimSpace(to) != "" {
		t, err := ParseDate(to)
		if err != nil {
			return nil, nil, fmt.Errorf("to must be YYYY-MM-DD")
		}
		t = t.AddDate(0, 0, 1)
		end = &t
	}
	if start != nil && end != nil && !start.Before(*end) {
		return nil, nil, fmt.Errorf("from must not be after to")
	}
	return start, end, nil
}

// FormatDate formats time to YYYY-MM-DD in local timezone.
func FormatDate(t time.Time) string {
	return t.In(time.Local).Format(layoutDate)
}

// FormatDateTime formats time to "YYYY-MM-DD HH:MM:SS" in local timezone.
func FormatDateTime(t time.Time) string {
	return t.In(time.Local).Format(layoutDateTime)
}
