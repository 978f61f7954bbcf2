package model

import (
	"encoding/json"
	"fmt"
	"sort"
)

// JSON field names the calendar reads. Everything else on an event is
// display data and travels through Attrs untouched.
const (
	FieldStartDate = "start_date"
	FieldDate      = "date"
)

// Event is one record supplied by the events backend or produced from an
// ICS subscription. Only StartDate and Date are interpreted; Date is the
// legacy field name older exports still use.
//
// A nil pointer means the field was absent or null.
type Event struct {
	StartDate *string
	Date      *string

	// Attrs holds every other field of the record as decoded JSON values.
	Attrs map[string]any

	// Original JSON of a non-string start_date/date, written back as is.
	startRaw json.RawMessage
	dateRaw  json.RawMessage
}

// NewEvent builds an Event with start_date set and the given attributes.
func NewEvent(startDate string, attrs map[string]any) Event {
	sd := startDate
	return Event{StartDate: &sd, Attrs: attrs}
}

// Attr returns the attribute named key, or nil.
func (e Event) Attr(key string) any {
	if e.Attrs == nil {
		return nil
	}
	return e.Attrs[key]
}

// Title picks a human label for the event from the usual field names.
func (e Event) Title() string {
	for _, k := range []string{"title", "name", "summary"} {
		if s, ok := e.Attr(k).(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// UnmarshalJSON decodes an arbitrary JSON object. A start_date/date value
// that is not a string is kept as its raw JSON text so it fails date
// resolution later instead of failing the whole decode.
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("event: %w", err)
	}

	out := Event{}
	for k, v := range raw {
		switch k {
		case FieldStartDate:
			out.StartDate, out.startRaw = decodeDateField(v)
		case FieldDate:
			out.Date, out.dateRaw = decodeDateField(v)
		default:
			var val any
			if err := json.Unmarshal(v, &val); err != nil {
				return fmt.Errorf("event field %q: %w", k, err)
			}
			if out.Attrs == nil {
				out.Attrs = make(map[string]any, len(raw))
			}
			out.Attrs[k] = val
		}
	}
	*e = out
	return nil
}

// decodeDateField returns the string value, or the raw JSON text plus the
// raw message itself when the value is not a string.
func decodeDateField(v json.RawMessage) (*string, json.RawMessage) {
	if string(v) == "null" {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		s = string(v)
		raw := append(json.RawMessage(nil), v...)
		return &s, raw
	}
	return &s, nil
}

// dateValue re-encodes a date field. Values decoded from non-string JSON
// keep their original form unless the field was changed since.
func dateValue(v *string, raw json.RawMessage) any {
	if raw != nil && *v == string(raw) {
		return raw
	}
	return *v
}

// MarshalJSON writes the event back as a flat object.
func (e Event) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(e.Attrs)+2)
	for k, v := range e.Attrs {
		m[k] = v
	}
	if e.StartDate != nil {
		m[FieldStartDate] = dateValue(e.StartDate, e.startRaw)
	}
	if e.Date != nil {
		m[FieldDate] = dateValue(e.Date, e.dateRaw)
	}
	return json.Marshal(m)
}

// Clone returns a deep copy: the date pointers, Attrs and any nested JSON
// objects or arrays inside Attrs are not shared with e.
func (e Event) Clone() Event {
	out := Event{startRaw: e.startRaw, dateRaw: e.dateRaw}
	if e.StartDate != nil {
		v := *e.StartDate
		out.StartDate = &v
	}
	if e.Date != nil {
		v := *e.Date
		out.Date = &v
	}
	if e.Attrs != nil {
		out.Attrs = cloneValue(e.Attrs).(map[string]any)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, x := range t {
			m[k] = cloneValue(x)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, x := range t {
			s[i] = cloneValue(x)
		}
		return s
	default:
		return v
	}
}

// Keys returns the attribute names in sorted order.
func (e Event) Keys() []string {
	keys := make([]string, 0, len(e.Attrs))
	for k := range e.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
