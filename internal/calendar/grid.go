// Package calendar computes calendar grids and navigation for the events
// views. Everything here is pure: callers pass the clock reading, the
// events and the current State, and get new values back.
package calendar

import (
	"time"

	appLog "churchcal/internal/log"
	"churchcal/internal/model"
)

// DayCell is one square of the calendar grid.
type DayCell struct {
	Date           time.Time     `json:"date"`
	DateKey        string        `json:"date_key"`
	IsToday        bool          `json:"is_today"`
	InCurrentMonth bool          `json:"in_current_month"`
	Events         []model.Event `json:"events"`
}

var weekdayLabels = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

// BucketEventsByDate groups events by the date key of their resolved date.
// Events without a usable date are skipped. Within a bucket, events keep
// the order they had in the input.
func BucketEventsByDate(events []model.Event, loc *time.Location) map[string][]model.Event {
	out := make(map[string][]model.Event)
	skipped := 0
	for _, ev := range events {
		d, ok := ResolveDate(ev, loc)
		if !ok {
			skipped++
			continue
		}
		key := DateKey(d)
		out[key] = append(out[key], ev)
	}
	if skipped > 0 {
		appLog.Debug("calendar: events without usable date skipped", "count", skipped)
	}
	return out
}

// ComputeMonthGrid returns whole weeks covering currentDate's month, from
// the week containing the 1st through the week containing the last day.
// today is the clock reading used for IsToday.
func ComputeMonthGrid(currentDate time.Time, ws WeekStart, eventsByDate map[string][]model.Event, today time.Time) []DayCell {
	loc := currentDate.Location()
	y, m, _ := currentDate.Date()

	first := time.Date(y, m, 1, 0, 0, 0, 0, loc)
	last := time.Date(y, m+1, 0, 0, 0, 0, 0, loc)

	start := startOfWeek(first, ws)
	end := startOfWeek(last, ws).AddDate(0, 0, 6)

	return buildCells(start, end, y, m, eventsByDate, today)
}

// ComputeWeekGrid returns the 7 days of the week containing currentDate.
func ComputeWeekGrid(currentDate time.Time, ws WeekStart, eventsByDate map[string][]model.Event, today time.Time) []DayCell {
	start := startOfWeek(dateOnly(currentDate, nil), ws)
	y, m, _ := currentDate.Date()
	return buildCells(start, start.AddDate(0, 0, 6), y, m, eventsByDate, today)
}

// ComputeDayGrid returns the single cell for currentDate.
func ComputeDayGrid(currentDate time.Time, eventsByDate map[string][]model.Event, today time.Time) []DayCell {
	d := dateOnly(currentDate, nil)
	y, m, _ := d.Date()
	return buildCells(d, d, y, m, eventsByDate, today)
}

// ComputeDaysOfWeekLabels returns 3-letter weekday labels starting at ws.
func ComputeDaysOfWeekLabels(ws WeekStart) [7]string {
	var out [7]string
	offset := int(ws.Weekday())
	for i := range out {
		out[i] = weekdayLabels[(offset+i)%7]
	}
	return out
}

// startOfWeek walks d back to the configured first weekday.
func startOfWeek(d time.Time, ws WeekStart) time.Time {
	diff := (int(d.Weekday()) - int(ws.Weekday()) + 7) % 7
	y, m, day := d.Date()
	return time.Date(y, m, day-diff, 0, 0, 0, 0, d.Location())
}

func buildCells(start, end time.Time, year int, month time.Month, eventsByDate map[string][]model.Event, today time.Time) []DayCell {
	loc := start.Location()
	todayKey := DateKey(today.In(loc))

	sy, sm, sd := start.Date()
	cells := make([]DayCell, 0, 42)
	for i := 0; ; i++ {
		// time.Date normalizes day overflow and is immune to DST-length days.
		d := time.Date(sy, sm, sd+i, 0, 0, 0, 0, loc)
		if d.After(end) {
			break
		}
		key := DateKey(d)
		events := eventsByDate[key]
		if events == nil {
			events = []model.Event{}
		}
		cells = append(cells, DayCell{
			Date:           d,
			DateKey:        key,
			IsToday:        key == todayKey,
			InCurrentMonth: d.Year() == year && d.Month() == month,
			Events:         events,
		})
	}
	return cells
}
