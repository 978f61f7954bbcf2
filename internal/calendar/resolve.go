package calendar

import (
	"strings"
	"time"

	"churchcal/internal/model"
)

// DateKeyLayout is the canonical YYYY-MM-DD key format.
const DateKeyLayout = "2006-01-02"

// Offset-bearing layouts are converted to the display location. Fractional
// seconds are accepted after any seconds field.
var offsetLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04Z0700",
}

// Zone-less layouts are read in the display location.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// DateKey formats the calendar date of t as YYYY-MM-DD.
func DateKey(t time.Time) string {
	return t.Format(DateKeyLayout)
}

// dateOnly returns midnight of t's calendar date in loc. The wall-clock
// date of t is kept, not its instant.
func dateOnly(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = t.Location()
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// ParseDate reads an ISO-8601 date or date-time and returns midnight of
// its calendar date in loc. Values carrying an offset are converted to loc
// first; date-only and zone-less values are taken as written.
func ParseDate(s string, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	// ISO-8601 allows lowercase t and z.
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return time.Time{}, false
	}

	if t, err := time.ParseInLocation(DateKeyLayout, s, loc); err == nil {
		return t, true
	}
	for _, layout := range offsetLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return dateOnly(t.In(loc), loc), true
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return dateOnly(t, loc), true
		}
	}
	return time.Time{}, false
}

// ResolveDate applies the event date rule: start_date first, then the
// legacy date field. The second return is false when neither field holds
// a usable date.
func ResolveDate(ev model.Event, loc *time.Location) (time.Time, bool) {
	for _, field := range []*string{ev.StartDate, ev.Date} {
		if field == nil || *field == "" {
			continue
		}
		if t, ok := ParseDate(*field, loc); ok {
			return t, true
		}
	}
	return time.Time{}, false
}
