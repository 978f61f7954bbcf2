package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"churchcal/internal/calendar"
	"churchcal/internal/config"
	"churchcal/internal/model"
)

type fakeSource struct {
	events  []model.Event
	updated time.Time
}

func (f *fakeSource) Events() []model.Event { return append([]model.Event(nil), f.events...) }
func (f *fakeSource) UpdatedAt() time.Time  { return f.updated }

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Timezone = "UTC"
	if mutate != nil {
		mutate(cfg)
	}
	cfg.Normalize()

	engine := &calendar.Engine{
		WeekStart: cfg.WeekStartValue(),
		Location:  time.UTC,
		Now:       func() time.Time { return time.Date(2024, time.March, 12, 9, 0, 0, 0, time.UTC) },
	}
	src := &fakeSource{
		events: []model.Event{
			model.NewEvent("2024-03-05", map[string]any{"title": "Elders meeting"}),
			{Date: strptr("2024-03-05T19:00:00Z"), Attrs: map[string]any{"title": "Youth night"}},
			model.NewEvent("2024-04-01", map[string]any{"title": "Easter Monday brunch"}),
			model.NewEvent("soon", map[string]any{"title": "Undated"}),
		},
		updated: time.Date(2024, time.March, 12, 8, 0, 0, 0, time.UTC),
	}
	return NewServer(cfg, engine, src, false)
}

func strptr(s string) *string { return &s }

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(t, s.Handler(), http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("health = %d %q", rec.Code, rec.Body.String())
	}
}

func TestCalendarMonth(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(t, s.Handler(), http.MethodGet, "/api/calendar?date=2024-03-20", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	resp := decode[calendarResponse](t, rec)
	if resp.State.View != "month" || resp.State.CurrentDate != "2024-03-20" {
		t.Fatalf("state = %+v", resp.State)
	}
	if len(resp.Cells) != 42 || resp.Cells[0].Date != "2024-02-25" || resp.Labels[0] != "Sun" {
		t.Fatalf("grid: %d cells from %s, labels %v", len(resp.Cells), resp.Cells[0].Date, resp.Labels)
	}

	var march5, april1, today int
	for _, c := range resp.Cells {
		switch c.Date {
		case "2024-03-05":
			march5 = len(c.Events)
		case "2024-04-01":
			april1 = len(c.Events)
		}
		if c.IsToday {
			today++
		}
	}
	if march5 != 2 || april1 != 1 || today != 1 {
		t.Fatalf("march5=%d april1=%d today=%d", march5, april1, today)
	}
}

func TestCalendarWeekStartOverride(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(t, s.Handler(), http.MethodGet, "/api/calendar?date=2024-03-20&view=week&week_start=monday", "")
	resp := decode[calendarResponse](t, rec)
	if len(resp.Cells) != 7 || resp.Cells[0].Date != "2024-03-18" || resp.WeekStart != "monday" {
		t.Fatalf("week = %d cells from %s (%s)", len(resp.Cells), resp.Cells[0].Date, resp.WeekStart)
	}
}

func TestCalendarBadInput(t *testing.T) {
	s := newTestServer(t, nil)
	for _, target := range []string{
		"/api/calendar?view=year",
		"/api/calendar?date=yesterday",
		"/api/calendar?week_start=friday",
	} {
		if rec := do(t, s.Handler(), http.MethodGet, target, ""); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status %d", target, rec.Code)
		}
	}
}

func TestNavigate(t *testing.T) {
	s := newTestServer(t, nil)
	h := s.Handler()

	body := `{"state": {"current_date": "2024-01-31", "view": "month"}, "action": "next"}`
	rec := do(t, h, http.MethodPost, "/api/calendar/navigate", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode[calendarResponse](t, rec)
	if resp.State.CurrentDate != "2024-02-29" || resp.Title != "February 2024" {
		t.Fatalf("next month = %+v %q", resp.State, resp.Title)
	}

	body = `{"state": {"current_date": "2024-02-29", "view": "month"}, "action": "date", "date": "2024-03-05", "view": "day"}`
	resp = decode[calendarResponse](t, do(t, h, http.MethodPost, "/api/calendar/navigate", body))
	if resp.State.View != "day" || len(resp.Cells) != 1 || len(resp.Cells[0].Events) != 2 {
		t.Fatalf("drill into day = %+v", resp)
	}

	body = `{"state": {"current_date": "2020-06-01", "view": "week"}, "action": "today"}`
	resp = decode[calendarResponse](t, do(t, h, http.MethodPost, "/api/calendar/navigate", body))
	if resp.State.CurrentDate != "2024-03-12" || resp.State.View != "week" {
		t.Fatalf("today = %+v", resp.State)
	}
}

func TestNavigateAcceptsViewInAnyCase(t *testing.T) {
	s := newTestServer(t, nil)
	body := `{"state": {"current_date": "2024-03-05", "view": "month"}, "action": "view", "view": " Week "}`
	rec := do(t, s.Handler(), http.MethodPost, "/api/calendar/navigate", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	resp := decode[calendarResponse](t, rec)
	if resp.State.View != "week" || len(resp.Cells) != 7 {
		t.Fatalf("view = %q with %d cells", resp.State.View, len(resp.Cells))
	}

	body = `{"state": {"current_date": "2024-03-05", "view": "month"}, "action": "Date", "date": "2024-03-20", "view": "DAY"}`
	resp = decode[calendarResponse](t, do(t, s.Handler(), http.MethodPost, "/api/calendar/navigate", body))
	if resp.State.View != "day" || resp.State.CurrentDate != "2024-03-20" {
		t.Fatalf("drill = %+v", resp.State)
	}
}

func TestNavigateRejectsInvalidView(t *testing.T) {
	s := newTestServer(t, nil)
	body := `{"state": {"current_date": "2024-03-05", "view": "week"}, "action": "view", "view": "quarter"}`
	rec := do(t, s.Handler(), http.MethodPost, "/api/calendar/navigate", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
	resp := decode[navigateError](t, rec)
	if resp.State.View != "week" || resp.State.CurrentDate != "2024-03-05" {
		t.Fatalf("prior state not echoed: %+v", resp.State)
	}

	rec = do(t, s.Handler(), http.MethodPost, "/api/calendar/navigate", `{"action": "sideways"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown action status %d", rec.Code)
	}
	rec = do(t, s.Handler(), http.MethodGet, "/api/calendar/navigate", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET navigate status %d", rec.Code)
	}
}

func TestEventsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(t, s.Handler(), http.MethodGet, "/api/events", "")
	resp := decode[struct {
		Count  int              `json:"count"`
		Events []map[string]any `json:"events"`
	}](t, rec)
	if resp.Count != 4 || resp.Events[1]["date"] != "2024-03-05T19:00:00Z" {
		t.Fatalf("events = %+v", resp)
	}
}

func TestCalendarPage(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(t, s.Handler(), http.MethodGet, "/calendar?date=2024-03-05&view=week", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	html := rec.Body.String()
	for _, want := range []string{
		`data-ready="true"`,
		"Mar 3 - 9, 2024",
		"Elders meeting",
		`<span class="time">19:00</span>Youth night`,
		`href="/calendar?date=2024-02-27&amp;view=week"`,
		`href="/calendar?date=2024-03-12&amp;view=week"`,
	} {
		if !strings.Contains(html, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestRootRedirects(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(t, s.Handler(), http.MethodGet, "/", "")
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/calendar" {
		t.Fatalf("root = %d %s", rec.Code, rec.Header().Get("Location"))
	}
	if rec := do(t, s.Handler(), http.MethodGet, "/nope", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown path = %d", rec.Code)
	}
}

func TestBasicAuth(t *testing.T) {
	s := newTestServer(t, func(c *config.Config) {
		c.BasicAuth = &config.BasicAuthConfig{Username: "office", Password: "psalm23"}
	})
	h := s.Handler()

	if rec := do(t, h, http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
		t.Fatalf("health behind auth: %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/calendar", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated calendar: %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/calendar", nil)
	req.SetBasicAuth("office", "psalm23")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("authenticated calendar: %d", rec.Code)
	}
}

func TestSnapshot(t *testing.T) {
	out := filepath.Join(t.TempDir(), "calendar.pdf")
	s := newTestServer(t, func(c *config.Config) {
		c.Capture.Format = "pdf"
		c.Capture.Output = out
	})
	h := s.Handler()

	if rec := do(t, h, http.MethodGet, "/calendar.pdf", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("missing snapshot status %d", rec.Code)
	}
	if err := os.WriteFile(out, []byte("%PDF-1.4"), 0o600); err != nil {
		t.Fatal(err)
	}
	if rec := do(t, h, http.MethodGet, "/calendar.pdf", ""); rec.Code != http.StatusOK {
		t.Fatalf("snapshot status %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/calendar.png", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("wrong-format snapshot status %d", rec.Code)
	}
}
