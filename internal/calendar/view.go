package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidView is returned when a view name is not day, week or month.
	ErrInvalidView = errors.New("calendar: invalid view")
	// ErrInvalidWeekStart is returned for week-start values other than sunday/monday.
	ErrInvalidWeekStart = errors.New("calendar: invalid week start")
)

// View is the navigation granularity used by GoToPrevious/GoToNext.
type View string

const (
	ViewDay   View = "day"
	ViewWeek  View = "week"
	ViewMonth View = "month"
)

// Valid reports whether v is one of the three known views.
func (v View) Valid() bool {
	switch v {
	case ViewDay, ViewWeek, ViewMonth:
		return true
	}
	return false
}

// ParseView accepts "day", "week" or "month" in any case.
func ParseView(s string) (View, error) {
	v := View(strings.ToLower(strings.TrimSpace(s)))
	if !v.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidView, s)
	}
	return v, nil
}

// WeekStart selects the first column of the grid: 0 = Sunday, 1 = Monday.
type WeekStart int

const (
	Sunday WeekStart = 0
	Monday WeekStart = 1
)

// Weekday returns the time.Weekday the week begins on.
func (w WeekStart) Weekday() time.Weekday {
	if w == Monday {
		return time.Monday
	}
	return time.Sunday
}

func (w WeekStart) String() string {
	if w == Monday {
		return "monday"
	}
	return "sunday"
}

// ParseWeekStart accepts "sunday", "monday", "0" or "1".
func ParseWeekStart(s string) (WeekStart, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sunday", "sun", "0":
		return Sunday, nil
	case "monday", "mon", "1":
		return Monday, nil
	}
	return Sunday, fmt.Errorf("%w: %q", ErrInvalidWeekStart, s)
}
