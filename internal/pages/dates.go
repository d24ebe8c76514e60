package pages

import (
	"fmt"
	"strings"
	"time"
)

// Layouts the catalog tables render dates in.
var dateLayouts = []string{
	"Jan 2, 2006, 3:04 PM",
	"Jan 2, 2006, 3:04:05 PM",
	"Jan 2, 2006 3:04 PM",
	"Jan 2, 2006",
	"January 2, 2006",
	"1/2/2006, 3:04:05 PM",
	"1/2/2006",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC3339,
}

// ParseTableDate parses a date cell in loc.
func ParseTableDate(raw string, loc *time.Location) (time.Time, error) {
	value := strings.Join(strings.Fields(raw), " ")
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}

// SameDay reports whether raw falls on the same calendar day as now, in now's
// location.
func SameDay(raw string, now time.Time) (bool, error) {
	t, err := ParseTableDate(raw, now.Location())
	if err != nil {
		return false, err
	}
	t = t.In(now.Location())
	y1, m1, d1 := t.Date()
	y2, m2, d2 := now.Date()
	return y1 == y2 && m1 == m2 && d1 == d2, nil
}

func requireSameDay(column, raw string, now time.Time) error {
	ok, err := SameDay(raw, now)
	if err != nil {
		return fmt.Errorf("%s: %w", column, err)
	}
	if !ok {
		return fmt.Errorf("%s: %q is not on %s", column, raw, now.Format("2006-01-02"))
	}
	return nil
}
