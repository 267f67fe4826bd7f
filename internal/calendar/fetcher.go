package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/academy/internal/api"
	"github.com/dukerupert/academy/internal/model"
	"github.com/dukerupert/academy/internal/recurrence"
)

// EventSource is the raw calendar endpoint. *api.Client satisfies it.
type EventSource interface {
	CalendarEvents(ctx context.Context, start, end time.Time) ([]model.RawEvent, error)
}

// RemoteFetcher loads raw events, normalizes them and expands recurring
// ones into the requested window.
type RemoteFetcher struct {
	source         EventSource
	loc            *time.Location
	maxOccurrences int
	logger         *slog.Logger
}

func NewRemoteFetcher(source EventSource, loc *time.Location, logger *slog.Logger) *RemoteFetcher {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RemoteFetcher{
		source:         source,
		loc:            loc,
		maxOccurrences: recurrence.DefaultMaxOccurrences,
		logger:         logger.With("component", "calendar_fetcher"),
	}
}

func (f *RemoteFetcher) Events(ctx context.Context, w Window) ([]model.Event, error) {
	raws, err := f.source.CalendarEvents(ctx, w.Start, w.End)
	if err != nil {
		return nil, fmt.Errorf("fetch calendar events: %w", err)
	}

	events := make([]model.Event, 0, len(raws))
	for _, raw := range raws {
		ev, err := raw.Normalize(f.loc)
		if err != nil {
			return nil, invalidEvent(err)
		}
		if len(raw.Recurrence) == 0 {
			events = append(events, ev)
			continue
		}

		occ, truncated, err := recurrence.Expand(raw.Recurrence, ev.Start, ev.End, w.Start, w.End, f.maxOccurrences)
		if err != nil {
			return nil, invalidEvent(fmt.Errorf("event %s: %w", raw.ID, err))
		}
		if truncated {
			f.logger.Warn("recurring event truncated", "id", raw.ID, "max", f.maxOccurrences)
		}
		for _, o := range occ {
			inst := ev
			inst.ID = OccurrenceID(raw.ID, o.Start)
			inst.RecurringID = raw.ID
			inst.Start = o.Start
			inst.End = o.End
			events = append(events, inst)
		}
	}
	return events, nil
}

// OccurrenceID names one instance of a recurring event.
func OccurrenceID(id string, start time.Time) string {
	return id + "_" + start.UTC().Format("20060102T150405Z")
}

func invalidEvent(err error) error {
	return &api.Error{
		Kind:   api.KindShape,
		Method: http.MethodGet,
		Path:   "/calendar/events",
		Err:    fmt.Errorf("%w: %v", api.ErrInvalidResponse, err),
	}
}
