package web

import (
	"net/http"
	"net/url"

	"churchcal/internal/calendar"
	appLog "churchcal/internal/log"
	"churchcal/internal/model"
)

type pageEvent struct {
	Title string
	Time  string
}

type pageCell struct {
	Day      int
	Key      string
	Class    string
	DrillURL string
	Events   []pageEvent
}

type pageLink struct {
	Label  string
	URL    string
	Active bool
}

type pageData struct {
	Title    string
	View     string
	Labels   [7]string
	Weeks    [][]pageCell
	Prev     string
	Next     string
	Today    string
	Views    []pageLink
	Empty    bool
	Updated  string
	Snapshot string
}

// handlePage renders the calendar as HTML. The root element carries
// data-ready="true" once rendered; the capture step waits for it.
//
// GET /calendar?date=2024-03-05&view=week&week_start=monday
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	e, err := s.engineFor(q.Get("week_start"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	st, err := s.stateFromQuery(e, q)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rendered := e.Render(st, s.events.Events())
	data := buildPage(e, rendered, q.Get("week_start"))
	if s.cfg != nil && s.cfg.Capture.Enabled {
		data.Snapshot = "/calendar." + s.cfg.Capture.Format
	}
	if t := s.events.UpdatedAt(); !t.IsZero() {
		data.Updated = t.In(e.Today().Location()).Format("Jan 2 15:04")
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.Execute(w, data); err != nil {
		appLog.Error("calendar page render failed", err)
	}
}

func buildPage(e *calendar.Engine, r calendar.Render, weekStart string) pageData {
	link := func(st calendar.State) string {
		v := url.Values{}
		v.Set("date", calendar.DateKey(st.CurrentDate))
		v.Set("view", string(st.View))
		if weekStart != "" {
			v.Set("week_start", weekStart)
		}
		return "/calendar?" + v.Encode()
	}

	st := r.State
	data := pageData{
		Title:  r.Title,
		View:   string(st.View),
		Labels: r.Labels,
		Prev:   link(calendar.GoToPrevious(st)),
		Next:   link(calendar.GoToNext(st)),
		Today:  link(calendar.GoToToday(st, e.Today())),
		Empty:  r.EventCount() == 0,
	}

	for _, v := range []calendar.View{calendar.ViewDay, calendar.ViewWeek, calendar.ViewMonth} {
		next, _ := calendar.SetView(st, v)
		data.Views = append(data.Views, pageLink{Label: string(v), URL: link(next), Active: v == st.View})
	}

	for _, week := range r.Weeks() {
		row := make([]pageCell, 0, len(week))
		for _, c := range week {
			drill, _ := calendar.SetView(calendar.GoToDate(st, c.Date), calendar.ViewDay)
			row = append(row, pageCell{
				Day:      c.Date.Day(),
				Key:      c.DateKey,
				Class:    cellClass(c),
				DrillURL: link(drill),
				Events:   pageEvents(c.Events),
			})
		}
		data.Weeks = append(data.Weeks, row)
	}
	return data
}

func cellClass(c calendar.DayCell) string {
	class := "day"
	if c.IsToday {
		class += " today"
	}
	if !c.InCurrentMonth {
		class += " outside"
	}
	if len(c.Events) > 0 {
		class += " busy"
	}
	return class
}

func pageEvents(evs []model.Event) []pageEvent {
	out := make([]pageEvent, 0, len(evs))
	for _, ev := range evs {
		title := ev.Title()
		if title == "" {
			title = "(untitled)"
		}
		out = append(out, pageEvent{Title: title, Time: clockTime(ev)})
	}
	return out
}

// clockTime returns HH:MM from a datetime start value, or "" for all-day.
func clockTime(ev model.Event) string {
	v := ev.StartDate
	if v == nil || *v == "" {
		v = ev.Date
	}
	if v == nil || len(*v) < 16 || (*v)[10] != 'T' {
		return ""
	}
	return (*v)[11:16]
}
