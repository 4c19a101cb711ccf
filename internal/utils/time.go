package utils

import (
	"fmt"
	"strings"
	"time"
)

const (
	// DateTimeLayout is used for every date rendered in responses and reports.
	DateTimeLayout = "2006-01-02 15:04:05"
	// BookingDateLayout is the only accepted booking date input.
	BookingDateLayout = "2006-01-02 15:04:05.000"
)

var queryDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.000",
	DateTimeLayout,
	"2006-01-02T15:04",
	"2006-01-02",
}

func FormatDateTime(t time.Time) string {
	return t.UTC().Format(DateTimeLayout)
}

// ParseBookingDate accepts exactly "YYYY-MM-DD HH:mm:ss.fff".
func ParseBookingDate(s string) (time.Time, bool) {
	t, err := time.Parse(BookingDateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ParseQueryDate accepts the date forms clients commonly send in query
// strings, from a bare date up to RFC 3339.
func ParseQueryDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range queryDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}
