package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"churchcal/internal/calendar"
	appLog "churchcal/internal/log"
	"churchcal/internal/model"
)

const eventsCacheTTL = 30 * time.Second

// stateDTO is the wire form of calendar.State: current_date is YYYY-MM-DD.
type stateDTO struct {
	CurrentDate string `json:"current_date"`
	View        string `json:"view"`
}

func toDTO(s calendar.State) stateDTO {
	return stateDTO{CurrentDate: calendar.DateKey(s.CurrentDate), View: string(s.View)}
}

type cellDTO struct {
	Date           string        `json:"date"`
	IsToday        bool          `json:"is_today"`
	InCurrentMonth bool          `json:"in_current_month"`
	Events         []model.Event `json:"events"`
}

type calendarResponse struct {
	State      stateDTO  `json:"state"`
	WeekStart  string    `json:"week_start"`
	Title      string    `json:"title"`
	Labels     [7]string `json:"labels"`
	Cells      []cellDTO `json:"cells"`
	RangeStart string    `json:"range_start"`
	RangeEnd   string    `json:"range_end"`
}

type eventsResponse struct {
	Events    []model.Event `json:"events"`
	Count     int           `json:"count"`
	UpdatedAt time.Time     `json:"updated_at"`
}

type navigateRequest struct {
	State     stateDTO `json:"state"`
	Action    string   `json:"action"`
	Date      string   `json:"date,omitempty"`
	View      string   `json:"view,omitempty"`
	WeekStart string   `json:"week_start,omitempty"`
}

type navigateError struct {
	Error string   `json:"error"`
	State stateDTO `json:"state"`
}

func toResponse(r calendar.Render, ws calendar.WeekStart) calendarResponse {
	cells := make([]cellDTO, 0, len(r.Cells))
	for _, c := range r.Cells {
		cells = append(cells, cellDTO{
			Date:           c.DateKey,
			IsToday:        c.IsToday,
			InCurrentMonth: c.InCurrentMonth,
			Events:         c.Events,
		})
	}
	return calendarResponse{
		State:      toDTO(r.State),
		WeekStart:  ws.String(),
		Title:      r.Title,
		Labels:     r.Labels,
		Cells:      cells,
		RangeStart: calendar.DateKey(r.RangeStart),
		RangeEnd:   calendar.DateKey(r.RangeEnd),
	}
}

// engineFor returns the server engine, or a copy using the week start
// requested by the caller.
func (s *Server) engineFor(weekStart string) (*calendar.Engine, error) {
	if weekStart == "" {
		return s.engine, nil
	}
	ws, err := calendar.ParseWeekStart(weekStart)
	if err != nil {
		return nil, err
	}
	e := *s.engine
	e.WeekStart = ws
	return &e, nil
}

// stateFromQuery builds a State from ?date=&view=. Missing values fall
// back to today and the configured default view.
func (s *Server) stateFromQuery(e *calendar.Engine, q url.Values) (calendar.State, error) {
	st := e.NewState()
	st.View = s.cfg.DefaultViewValue()
	return s.overlayState(e, st, stateDTO{CurrentDate: q.Get("date"), View: q.Get("view")})
}

func (s *Server) overlayState(e *calendar.Engine, st calendar.State, dto stateDTO) (calendar.State, error) {
	if dto.CurrentDate != "" {
		d, ok := calendar.ParseDate(dto.CurrentDate, e.Location)
		if !ok {
			return st, fmt.Errorf("invalid date %q", dto.CurrentDate)
		}
		st = calendar.GoToDate(st, d)
	}
	if dto.View != "" {
		v, err := calendar.ParseView(dto.View)
		if err != nil {
			return st, err
		}
		st.View = v
	}
	return e.Normalize(st), nil
}

// handleEvents returns the current event collection.
//
// GET /api/events
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	now := time.Now()
	s.eventsMu.RLock()
	ec := s.eventsCache
	s.eventsMu.RUnlock()
	if ec != nil && now.Sub(ec.updatedAt) < eventsCacheTTL && ec.resp.UpdatedAt.Equal(s.events.UpdatedAt()) {
		writeJSON(w, http.StatusOK, ec.resp)
		return
	}

	events := s.events.Events()
	resp := eventsResponse{Events: events, Count: len(events), UpdatedAt: s.events.UpdatedAt()}

	s.eventsMu.Lock()
	s.eventsCache = &eventsCache{resp: resp, updatedAt: now}
	s.eventsMu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

// handleCalendar renders one calendar screen.
//
// GET /api/calendar?date=2024-03-05&view=month&week_start=monday
//   - date:       reference date (default today)
//   - view:       day, week or month (default from config)
//   - week_start: sunday or monday (default from config)
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	q := r.URL.Query()

	e, err := s.engineFor(q.Get("week_start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	st, err := s.stateFromQuery(e, q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, toResponse(e.Render(st, s.events.Events()), e.WeekStart))
}

// handleNavigate applies one navigation action to a caller-held state and
// returns the new state with its render. The server keeps no state.
//
// POST /api/calendar/navigate
//
//	{"state": {"current_date": "2024-03-05", "view": "month"},
//	 "action": "next|previous|today|date|view", "date": "...", "view": "..."}
//
// An invalid action or view answers 400 and echoes the prior state.
func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req navigateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	e, err := s.engineFor(req.WeekStart)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	st, err := s.overlayState(e, e.NewState(), req.State)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	action := calendar.Action{Kind: calendar.ActionKind(strings.ToLower(strings.TrimSpace(req.Action)))}
	if req.View != "" {
		v, err := calendar.ParseView(req.View)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, navigateError{Error: err.Error(), State: toDTO(st)})
			return
		}
		action.View = v
	}
	if req.Date != "" {
		d, ok := calendar.ParseDate(req.Date, e.Location)
		if !ok {
			writeJSON(w, http.StatusBadRequest, navigateError{Error: fmt.Sprintf("invalid date %q", req.Date), State: toDTO(st)})
			return
		}
		action.Date = d
	}

	next, err := e.Apply(st, action)
	if err != nil {
		status := http.StatusBadRequest
		if !errors.Is(err, calendar.ErrInvalidView) && !errors.Is(err, calendar.ErrUnknownAction) {
			status = http.StatusUnprocessableEntity
		}
		appLog.Debug("navigate rejected", "action", req.Action, "err", err)
		writeJSON(w, status, navigateError{Error: err.Error(), State: toDTO(st)})
		return
	}

	writeJSON(w, http.StatusOK, toResponse(e.Render(next, s.events.Events()), e.WeekStart))
}
