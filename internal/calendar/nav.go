package calendar

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnknownAction is returned by Apply for action kinds it does not know.
var ErrUnknownAction = errors.New("calendar: unknown action")

// State is the cursor of one calendar instance. It is a plain value:
// every transition returns a new State and leaves its input alone.
type State struct {
	CurrentDate time.Time `json:"current_date"`
	View        View      `json:"view"`
}

// NewState starts on the calendar date of now in month view.
func NewState(now time.Time) State {
	return State{CurrentDate: dateOnly(now, nil), View: ViewMonth}
}

// GoToPrevious steps back one unit of the current view.
func GoToPrevious(s State) State {
	return step(s, -1)
}

// GoToNext steps forward one unit of the current view.
func GoToNext(s State) State {
	return step(s, 1)
}

func step(s State, dir int) State {
	switch s.View {
	case ViewDay:
		s.CurrentDate = s.CurrentDate.AddDate(0, 0, dir)
	case ViewWeek:
		s.CurrentDate = s.CurrentDate.AddDate(0, 0, 7*dir)
	default:
		s.CurrentDate = addMonthsClamped(s.CurrentDate, dir)
	}
	return s
}

// GoToToday moves to the calendar date of now; the view is kept.
func GoToToday(s State, now time.Time) State {
	s.CurrentDate = dateOnly(now.In(s.location()), nil)
	return s
}

// GoToDate moves to date; the view is kept.
func GoToDate(s State, date time.Time) State {
	s.CurrentDate = dateOnly(date, s.location())
	return s
}

// SetView switches the view. An unknown view leaves the state as it was
// and returns ErrInvalidView.
func SetView(s State, v View) (State, error) {
	if !v.Valid() {
		return s, fmt.Errorf("%w: %q", ErrInvalidView, string(v))
	}
	s.View = v
	return s, nil
}

func (s State) location() *time.Location {
	if s.CurrentDate.IsZero() {
		return time.Local
	}
	return s.CurrentDate.Location()
}

// addMonthsClamped moves t by n calendar months, keeping the day of month
// when the target month has it and clamping to its last day otherwise.
// Jan 31 + 1 month is Feb 28 (or 29), not Mar 3.
func addMonthsClamped(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	target := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(target.Year(), target.Month()); d > last {
		d = last
	}
	hh, mm, ss := t.Clock()
	return time.Date(target.Year(), target.Month(), d, hh, mm, ss, t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ActionKind names a navigation transition.
type ActionKind string

const (
	ActionPrevious ActionKind = "previous"
	ActionNext     ActionKind = "next"
	ActionToday    ActionKind = "today"
	ActionDate     ActionKind = "date"
	ActionView     ActionKind = "view"
)

// Action is a navigation request from one of the shells (HTTP, CLI).
// Date is read by ActionDate, View by ActionView. ActionDate with a
// non-empty View also switches the view, which is how a click on a month
// cell drills into day view.
type Action struct {
	Kind ActionKind
	Date time.Time
	View View
}

// Apply runs a on s. now is used by ActionToday. On error the returned
// state equals s.
func Apply(s State, a Action, now time.Time) (State, error) {
	switch a.Kind {
	case ActionPrevious:
		return GoToPrevious(s), nil
	case ActionNext:
		return GoToNext(s), nil
	case ActionToday:
		return GoToToday(s, now), nil
	case ActionDate:
		if a.Date.IsZero() {
			return s, fmt.Errorf("calendar: date action without date")
		}
		next := GoToDate(s, a.Date)
		if a.View == "" {
			return next, nil
		}
		next, err := SetView(next, a.View)
		if err != nil {
			return s, err
		}
		return next, nil
	case ActionView:
		return SetView(s, a.View)
	}
	return s, fmt.Errorf("%w: %q", ErrUnknownAction, string(a.Kind))
}
