package calendar

import (
	"fmt"
	"time"

	"churchcal/internal/model"
)

// Render is everything a view needs to draw one calendar screen.
type Render struct {
	State      State     `json:"state"`
	Title      string    `json:"title"`
	Labels     [7]string `json:"labels"`
	Cells      []DayCell `json:"cells"`
	RangeStart time.Time `json:"range_start"`
	RangeEnd   time.Time `json:"range_end"`
}

// Weeks splits Cells into rows of 7. Day view yields a single short row.
func (r Render) Weeks() [][]DayCell {
	var rows [][]DayCell
	for i := 0; i < len(r.Cells); i += 7 {
		end := i + 7
		if end > len(r.Cells) {
			end = len(r.Cells)
		}
		rows = append(rows, r.Cells[i:end])
	}
	return rows
}

// EventCount is the number of events placed on the grid.
func (r Render) EventCount() int {
	n := 0
	for _, c := range r.Cells {
		n += len(c.Events)
	}
	return n
}

// Engine binds the pure grid functions to a display location, a week-start
// convention and a clock. It holds no calendar state of its own, so one
// Engine may serve any number of independent States.
type Engine struct {
	WeekStart WeekStart
	Location  *time.Location
	// Now defaults to time.Now.
	Now func() time.Time
}

// NewEngine returns an Engine using the wall clock.
func NewEngine(ws WeekStart, loc *time.Location) *Engine {
	if loc == nil {
		loc = time.Local
	}
	return &Engine{WeekStart: ws, Location: loc, Now: time.Now}
}

func (e *Engine) now() time.Time {
	if e.Now == nil {
		return time.Now().In(e.loc())
	}
	return e.Now().In(e.loc())
}

func (e *Engine) loc() *time.Location {
	if e.Location == nil {
		return time.Local
	}
	return e.Location
}

// Today is the engine's clock reading in its display location.
func (e *Engine) Today() time.Time {
	return e.now()
}

// NewState returns a fresh month-view State on today's date.
func (e *Engine) NewState() State {
	return NewState(e.now())
}

// Normalize re-anchors s onto the engine's location and fills a missing
// or unknown view with month.
func (e *Engine) Normalize(s State) State {
	if s.CurrentDate.IsZero() {
		s.CurrentDate = e.now()
	}
	s.CurrentDate = dateOnly(s.CurrentDate, e.loc())
	if !s.View.Valid() {
		s.View = ViewMonth
	}
	return s
}

// Apply runs a navigation action against the engine's clock.
func (e *Engine) Apply(s State, a Action) (State, error) {
	return Apply(e.Normalize(s), a, e.now())
}

// Render computes the grid for s over events. The clock is read once so
// IsToday is consistent across the whole grid. events is only read.
func (e *Engine) Render(s State, events []model.Event) Render {
	s = e.Normalize(s)
	today := e.now()
	byDate := BucketEventsByDate(events, e.loc())

	var cells []DayCell
	switch s.View {
	case ViewDay:
		cells = ComputeDayGrid(s.CurrentDate, byDate, today)
	case ViewWeek:
		cells = ComputeWeekGrid(s.CurrentDate, e.WeekStart, byDate, today)
	default:
		cells = ComputeMonthGrid(s.CurrentDate, e.WeekStart, byDate, today)
	}

	r := Render{
		State:  s,
		Title:  Title(s),
		Labels: ComputeDaysOfWeekLabels(e.WeekStart),
		Cells:  cells,
	}
	if len(cells) > 0 {
		r.RangeStart = cells[0].Date
		r.RangeEnd = cells[len(cells)-1].Date
	}
	if s.View == ViewWeek && len(cells) == 7 {
		r.Title = weekTitle(cells[0].Date, cells[6].Date)
	}
	return r
}

// Title is the heading shown above a view: "March 2024" for month view,
// "Tuesday, March 5, 2024" for day view and the week's start date for
// week view.
func Title(s State) string {
	switch s.View {
	case ViewDay:
		return s.CurrentDate.Format("Monday, January 2, 2006")
	case ViewWeek:
		return "Week of " + s.CurrentDate.Format("Jan 2, 2006")
	default:
		return s.CurrentDate.Format("January 2006")
	}
}

func weekTitle(start, end time.Time) string {
	switch {
	case start.Year() != end.Year():
		return fmt.Sprintf("%s - %s", start.Format("Jan 2, 2006"), end.Format("Jan 2, 2006"))
	case start.Month() != end.Month():
		return fmt.Sprintf("%s - %s", start.Format("Jan 2"), end.Format("Jan 2, 2006"))
	default:
		return fmt.Sprintf("%s - %d, %d", start.Format("Jan 2"), end.Day(), end.Year())
	}
}
