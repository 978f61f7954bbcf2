package model

import (
	"encoding/json"
	"testing"
)

func TestEventUnmarshalKeepsDisplayFields(t *testing.T) {
	var ev Event
	data := `{"id": 12, "title": "Choir practice", "start_date": "2024-03-05T18:30:00Z", "date": null, "tags": ["music"]}`
	if err := json.Unmarshal([]byte(data), &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if ev.StartDate == nil || *ev.StartDate != "2024-03-05T18:30:00Z" {
		t.Fatalf("unexpected start_date: %v", ev.StartDate)
	}
	if ev.Date != nil {
		t.Fatalf("expected null date to decode as nil, got %q", *ev.Date)
	}
	if ev.Title() != "Choir practice" {
		t.Fatalf("Title() = %q", ev.Title())
	}
	if id, ok := ev.Attr("id").(float64); !ok || id != 12 {
		t.Fatalf("id attr = %#v", ev.Attr("id"))
	}
	if got := ev.Keys(); len(got) != 3 || got[0] != "id" || got[1] != "tags" || got[2] != "title" {
		t.Fatalf("Keys() = %v", got)
	}
}

func TestEventUnmarshalNonStringDateKeptRaw(t *testing.T) {
	var ev Event
	if err := json.Unmarshal([]byte(`{"date": 20240305}`), &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.Date == nil || *ev.Date != "20240305" {
		t.Fatalf("expected raw numeric text, got %v", ev.Date)
	}
}

func TestEventMarshalRoundTripsUnknownFields(t *testing.T) {
	ev := NewEvent("2024-01-01", map[string]any{"name": "New Year service", "room": "Sanctuary"})

	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var back map[string]any
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back["start_date"] != "2024-01-01" || back["room"] != "Sanctuary" {
		t.Fatalf("unexpected marshal output: %s", data)
	}
	if _, ok := back["date"]; ok {
		t.Fatalf("absent date must not be emitted: %s", data)
	}
}

func TestTitleFallsBackThroughNames(t *testing.T) {
	ev := Event{Attrs: map[string]any{"summary": "Potluck"}}
	if ev.Title() != "Potluck" {
		t.Fatalf("Title() = %q", ev.Title())
	}
	if (Event{}).Title() != "" {
		t.Fatal("expected empty title for empty event")
	}
}

func TestEventMarshalKeepsNonStringDates(t *testing.T) {
	in := `{"date":20240305,"start_date":{"y":2024},"title":"Lent supper"}`
	var ev Event
	if err := json.Unmarshal([]byte(in), &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	out, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != in {
		t.Fatalf("re-encoded %s, want %s", out, in)
	}

	changed := "2024-03-06"
	ev.Date = &changed
	out, _ = json.Marshal(ev)
	var back map[string]any
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatal(err)
	}
	if back["date"] != "2024-03-06" {
		t.Fatalf("edited date not written: %s", out)
	}
}

func TestCloneIsDeep(t *testing.T) {
	ev := NewEvent("2024-03-05", map[string]any{
		"title": "Vestry",
		"tags":  []any{"council"},
		"room":  map[string]any{"name": "Hall"},
	})
	c := ev.Clone()

	*c.StartDate = "2024-03-06"
	c.Attrs["title"] = "Changed"
	c.Attrs["tags"].([]any)[0] = "changed"
	c.Attrs["room"].(map[string]any)["name"] = "Changed"

	if *ev.StartDate != "2024-03-05" || ev.Title() != "Vestry" {
		t.Fatalf("clone shares top-level fields: %+v", ev)
	}
	if ev.Attrs["tags"].([]any)[0] != "council" || ev.Attrs["room"].(map[string]any)["name"] != "Hall" {
		t.Fatalf("clone shares nested values: %+v", ev.Attrs)
	}
}
