package ics

import (
	"errors"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	appLog "churchcal/internal/log"
	"churchcal/internal/model"
)

const defaultMaxOccurrencesPerEvent = 5000

// Window bounds recurrence expansion and sets the display zone.
type Window struct {
	// Location is the display timezone; nil means time.Local.
	Location *time.Location

	// Start / End are inclusive.
	Start time.Time
	End   time.Time

	// MaxPerEvent caps occurrences of one recurring series.
	MaxPerEvent int
}

// Occurrence is a single concrete instance of a VEVENT.
type Occurrence struct {
	SourceID string
	UID      string

	Summary     string
	Description string
	Location    string

	AllDay bool
	Start  time.Time
	End    time.Time
}

// Expand turns parsed VEVENTs into occurrences inside w, applying RRULE,
// EXDATE and RECURRENCE-ID overrides. Occurrences are sorted by start.
// The returned UIDs hit the MaxPerEvent cap.
func Expand(events []ParsedEvent, w Window) ([]Occurrence, []string, error) {
	if w.End.Before(w.Start) {
		return nil, nil, errors.New("expand: window end is before start")
	}
	if w.Location == nil {
		w.Location = time.Local
	}
	if w.MaxPerEvent <= 0 {
		w.MaxPerEvent = defaultMaxOccurrencesPerEvent
	}

	base := make(map[string][]ParsedEvent)
	overrides := make(map[string][]ParsedEvent)
	var uids []string
	for _, ev := range events {
		if ev.IsOverride() {
			overrides[ev.UID] = append(overrides[ev.UID], ev)
			continue
		}
		if _, seen := base[ev.UID]; !seen {
			uids = append(uids, ev.UID)
		}
		base[ev.UID] = append(base[ev.UID], ev)
	}

	var out []Occurrence
	var truncated []string
	for _, uid := range uids {
		hitCap := false
		for _, ev := range base[uid] {
			occ, capped := expandOne(ev, overrides[uid], w)
			hitCap = hitCap || capped
			out = append(out, occ...)
		}
		if hitCap {
			truncated = append(truncated, uid)
			appLog.Warn("expand: occurrences truncated", "uid", uid, "cap", w.MaxPerEvent)
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, truncated, nil
}

func expandOne(ev ParsedEvent, overrides []ParsedEvent, w Window) ([]Occurrence, bool) {
	if ev.RawRRule == "" {
		if !overlaps(ev.Start, ev.End, w.Start, w.End) {
			return nil, false
		}
		return []Occurrence{occurrence(ev, ev.Start, ev.End, overrides, w.Location)}, false
	}

	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Warn("expand: bad RRULE skipped", "uid", ev.UID, "rrule", ev.RawRRule, "err", err)
		return nil, false
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	loc := ev.Start.Location()
	starts := set.Between(w.Start.In(loc), w.End.In(loc), true)

	capped := false
	if len(starts) > w.MaxPerEvent {
		starts = starts[:w.MaxPerEvent]
		capped = true
	}

	dur := ev.End.Sub(ev.Start)
	out := make([]Occurrence, 0, len(starts))
	for _, s := range starts {
		out = append(out, occurrence(ev, s, s.Add(dur), overrides, w.Location))
	}
	return out, capped
}

// occurrence builds one instance, swapping in an override whose
// RECURRENCE-ID matches start.
func occurrence(ev ParsedEvent, start, end time.Time, overrides []ParsedEvent, display *time.Location) Occurrence {
	for _, o := range overrides {
		if o.Recurrence != nil && o.Recurrence.Equal(start) {
			ev, start, end = o, o.Start, o.End
			break
		}
	}

	occ := Occurrence{
		SourceID:    ev.Source.ID,
		UID:         ev.UID,
		Summary:     ev.Summary,
		Description: ev.Description,
		Location:    ev.Location,
		AllDay:      ev.AllDay,
		Start:       start,
		End:         end,
	}
	// All-day instances name a calendar date; converting them would move
	// them across midnight.
	if !ev.AllDay {
		occ.Start = start.In(display)
		occ.End = end.In(display)
	}
	return occ
}

func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aEnd.Before(bStart) && !bEnd.Before(aStart)
}

// ToEvent converts an occurrence into the record shape the calendar
// consumes. All-day instances carry a date-only start_date.
func (o Occurrence) ToEvent() model.Event {
	attrs := map[string]any{
		"uid":      o.UID,
		"source":   o.SourceID,
		"title":    o.Summary,
		"all_day":  o.AllDay,
		"location": o.Location,
	}
	if o.Description != "" {
		attrs["description"] = o.Description
	}

	if o.AllDay {
		attrs["end_date"] = o.End.Format("2006-01-02")
		return model.NewEvent(o.Start.Format("2006-01-02"), attrs)
	}
	attrs["end_date"] = o.End.Format(time.RFC3339)
	return model.NewEvent(o.Start.Format(time.RFC3339), attrs)
}

// ToEvents converts a batch of occurrences.
func ToEvents(occ []Occurrence) []model.Event {
	out := make([]model.Event, 0, len(occ))
	for _, o := range occ {
		out = append(out, o.ToEvent())
	}
	return out
}
