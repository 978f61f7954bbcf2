// Package store keeps the current collection of calendar events, merged
// from the backend's JSON export and any ICS subscriptions.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"churchcal/internal/ics"
	appLog "churchcal/internal/log"
	"churchcal/internal/model"
)

// Options configures a Store.
type Options struct {
	// EventsFile is a JSON array of events, or a paginated {"results": [...]}
	// page as exported by the administration backend. Empty disables it.
	EventsFile string

	ICS []ics.Source
	// Fetcher is required when ICS is non-empty.
	Fetcher *ics.Fetcher

	Location     *time.Location
	HorizonDays  int
	BackfillDays int

	// Now defaults to time.Now.
	Now func() time.Time
}

// Store holds the latest event snapshot. Refresh replaces it; readers
// always get a copy.
type Store struct {
	opts Options

	mu       sync.RWMutex
	file     []model.Event
	feeds    map[string][]model.Event
	updated  time.Time
	lastErrs []error
}

// New returns an empty Store. Call Refresh to load events.
func New(opts Options) *Store {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{opts: opts, feeds: make(map[string][]model.Event)}
}

// Events returns a deep copy of the current collection: file events first,
// then feed events in configured source order. Callers may modify it.
func (s *Store) Events() []model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.file)
	for _, evs := range s.feeds {
		n += len(evs)
	}
	out := make([]model.Event, 0, n)
	for _, ev := range s.file {
		out = append(out, ev.Clone())
	}
	for _, src := range s.opts.ICS {
		for _, ev := range s.feeds[src.ID] {
			out = append(out, ev.Clone())
		}
	}
	return out
}

// UpdatedAt is the time of the last Refresh.
func (s *Store) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updated
}

// LastErrors returns the per-source failures of the last Refresh.
func (s *Store) LastErrors() []error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]error(nil), s.lastErrs...)
}

// Refresh reloads every source. A failing source keeps its previous
// events; the joined failures are returned after the snapshot is swapped.
func (s *Store) Refresh(ctx context.Context) error {
	var errs []error

	fileEvents, fileErr := s.loadFile()
	if fileErr != nil {
		errs = append(errs, fileErr)
		appLog.Error("store: events file load failed", fileErr, "path", s.opts.EventsFile)
	}

	feeds, feedErrs := s.loadFeeds(ctx)
	errs = append(errs, feedErrs...)

	s.mu.Lock()
	if fileErr == nil {
		s.file = fileEvents
	}
	for id, evs := range feeds {
		s.feeds[id] = evs
	}
	s.updated = s.opts.Now()
	s.lastErrs = errs
	total := len(s.file)
	for _, evs := range s.feeds {
		total += len(evs)
	}
	s.mu.Unlock()

	appLog.Info("store: refreshed", "events", total, "errors", len(errs))
	return errors.Join(errs...)
}

func (s *Store) loadFile() ([]model.Event, error) {
	if s.opts.EventsFile == "" {
		return nil, nil
	}
	data, err := os.ReadFile(s.opts.EventsFile)
	if err != nil {
		return nil, err
	}
	return DecodeEvents(data)
}

// DecodeEvents reads a JSON array of events or a {"results": [...]} page.
func DecodeEvents(data []byte) ([]model.Event, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	var events []model.Event
	if data[0] == '[' {
		if err := json.Unmarshal(data, &events); err != nil {
			return nil, fmt.Errorf("decode events: %w", err)
		}
		return events, nil
	}

	var page struct {
		Results []model.Event `json:"results"`
	}
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("decode events page: %w", err)
	}
	return page.Results, nil
}

func (s *Store) loadFeeds(ctx context.Context) (map[string][]model.Event, []error) {
	out := make(map[string][]model.Event)
	if len(s.opts.ICS) == 0 {
		return out, nil
	}
	if s.opts.Fetcher == nil {
		return out, []error{errors.New("store: ICS sources configured without fetcher")}
	}

	now := s.opts.Now().In(s.opts.Location)
	window := ics.Window{
		Location: s.opts.Location,
		Start:    now.AddDate(0, 0, -s.opts.BackfillDays),
		End:      now.AddDate(0, 0, s.opts.HorizonDays),
	}

	results, errs := s.opts.Fetcher.FetchAll(ctx, s.opts.ICS)
	for _, res := range results {
		parsed, err := ics.ParseICS(res.Source, res.Body)
		if err != nil {
			errs = append(errs, err)
			appLog.Error("store: ics parse failed", err, "id", res.Source.ID)
			continue
		}
		occ, _, err := ics.Expand(parsed, window)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out[res.Source.ID] = ics.ToEvents(occ)
	}
	return out, errs
}
