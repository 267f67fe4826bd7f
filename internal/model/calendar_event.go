package model

import (
	"fmt"
	"time"
)

type EventType string

const (
	EventFormation EventType = "formation"
	EventSession   EventType = "session"
)

// Event is a timed calendar entry ready for bucketing.
type Event struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	AllDay       bool      `json:"allDay,omitempty"`
	Location     string    `json:"location,omitempty"`
	Organizer    string    `json:"organizer,omitempty"`
	Participants int       `json:"participants"`
	Type         EventType `json:"type"`
	Status       string    `json:"status,omitempty"`
	RecurringID  string    `json:"recurringId,omitempty"`
}

// EventTime is the nested start/end object of the calendar API. Timed events
// carry DateTime, all-day events carry Date.
type EventTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
	TimeZone string `json:"timeZone,omitempty"`
}

type RawPerson struct {
	DisplayName string `json:"displayName,omitempty"`
	Email       string `json:"email,omitempty"`
}

// RawEvent is an event exactly as the calendar endpoint returns it.
type RawEvent struct {
	ID               string      `json:"id"`
	Summary          string      `json:"summary"`
	Description      string      `json:"description,omitempty"`
	Location         string      `json:"location,omitempty"`
	Start            EventTime   `json:"start"`
	End              EventTime   `json:"end"`
	Organizer        RawPerson   `json:"organizer"`
	Attendees        []RawPerson `json:"attendees,omitempty"`
	ParticipantCount *int        `json:"participantCount,omitempty"`
	Type             string      `json:"type,omitempty"`
	Status           string      `json:"status,omitempty"`
	Recurrence       []string    `json:"recurrence,omitempty"`
}

// Parse resolves an EventTime in loc. Date-only values are midnight in the
// event's zone, or loc when none is given.
func (t EventTime) Parse(loc *time.Location) (time.Time, bool, error) {
	if t.DateTime != "" {
		v, err := time.Parse(time.RFC3339, t.DateTime)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("parse dateTime %q: %w", t.DateTime, err)
		}
		return v, false, nil
	}
	if t.Date != "" {
		zone := loc
		if t.TimeZone != "" {
			if z, err := time.LoadLocation(t.TimeZone); err == nil {
				zone = z
			}
		}
		v, err := time.ParseInLocation("2006-01-02", t.Date, zone)
		if err != nil {
			return time.Time{}, true, fmt.Errorf("parse date %q: %w", t.Date, err)
		}
		return v, true, nil
	}
	return time.Time{}, false, fmt.Errorf("event time has neither dateTime nor date")
}

// Normalize converts the wire event to an Event.
func (r RawEvent) Normalize(loc *time.Location) (Event, error) {
	if loc == nil {
		loc = time.UTC
	}
	start, allDay, err := r.Start.Parse(loc)
	if err != nil {
		return Event{}, fmt.Errorf("event %s start: %w", r.ID, err)
	}
	end, _, err := r.End.Parse(loc)
	if err != nil {
		return Event{}, fmt.Errorf("event %s end: %w", r.ID, err)
	}

	participants := len(r.Attendees)
	if r.ParticipantCount != nil {
		participants = *r.ParticipantCount
	}
	typ := EventType(r.Type)
	if typ == "" {
		typ = EventSession
	}
	organizer := r.Organizer.DisplayName
	if organizer == "" {
		organizer = r.Organizer.Email
	}

	return Event{
		ID:           r.ID,
		Title:        r.Summary,
		Description:  r.Description,
		Start:        start,
		End:          end,
		AllDay:       allDay,
		Location:     r.Location,
		Organizer:    organizer,
		Participants: participants,
		Type:         typ,
		Status:       r.Status,
	}, nil
}
