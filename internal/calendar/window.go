package calendar

import (
	"fmt"
	"strings"
	"time"
)

// Granularity is the span a view displays.
type Granularity int

const (
	Day Granularity = iota
	Week
	Month
)

func (g Granularity) String() string {
	switch g {
	case Week:
		return "week"
	case Month:
		return "month"
	default:
		return "day"
	}
}

func (g Granularity) MarshalText() ([]byte, error) { return []byte(g.String()), nil }

func (g *Granularity) UnmarshalText(b []byte) error {
	v, err := ParseGranularity(string(b))
	if err != nil {
		return err
	}
	*g = v
	return nil
}

// ParseGranularity accepts day, week or month in any case.
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "day":
		return Day, nil
	case "week":
		return Week, nil
	case "month":
		return Month, nil
	}
	return Day, fmt.Errorf("unknown granularity %q", s)
}

// Window is the half-open interval [Start, End) a view shows.
type Window struct {
	Start       time.Time   `json:"start"`
	End         time.Time   `json:"end"`
	Granularity Granularity `json:"granularity"`
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Days lists the dates covered by the window, in order.
func (w Window) Days() []DateKey {
	var days []DateKey
	for d := w.Start; d.Before(w.End); d = d.AddDate(0, 0, 1) {
		days = append(days, KeyOf(d))
	}
	return days
}

// WindowFor computes the window containing anchor, in anchor's location.
// Weeks start on Monday.
func WindowFor(anchor time.Time, g Granularity) Window {
	day := midnight(anchor)
	switch g {
	case Week:
		start := day.AddDate(0, 0, -mondayOffset(day))
		return Window{Start: start, End: start.AddDate(0, 0, 7), Granularity: g}
	case Month:
		start := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
		return Window{Start: start, End: start.AddDate(0, 1, 0), Granularity: g}
	default:
		return Window{Start: day, End: day.AddDate(0, 0, 1), Granularity: Day}
	}
}

// Navigate moves anchor by steps windows. Month steps land on day 1 so that
// Jan 31 + 1 month is February, not March.
func Navigate(anchor time.Time, g Granularity, steps int) time.Time {
	switch g {
	case Week:
		return anchor.AddDate(0, 0, 7*steps)
	case Month:
		first := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, anchor.Location())
		return first.AddDate(0, steps, 0)
	default:
		return anchor.AddDate(0, 0, steps)
	}
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// mondayOffset is the number of days since the most recent Monday.
func mondayOffset(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
