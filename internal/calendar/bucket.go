package calendar

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dukerupert/academy/internal/model"
)

// DateKey identifies a calendar date independent of time of day.
type DateKey struct {
	Year  int
	Month time.Month
	Day   int
}

// KeyOf returns the date of t in t's own location.
func KeyOf(t time.Time) DateKey {
	y, m, d := t.Date()
	return DateKey{Year: y, Month: m, Day: d}
}

func (k DateKey) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", k.Year, int(k.Month), k.Day)
}

func (k DateKey) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// ParseDateKey reads a YYYY-MM-DD date.
func ParseDateKey(s string) (DateKey, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return DateKey{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return KeyOf(t), nil
}

func (k *DateKey) UnmarshalText(b []byte) error {
	v, err := ParseDateKey(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// In returns midnight of the date in loc.
func (k DateKey) In(loc *time.Location) time.Time {
	return time.Date(k.Year, k.Month, k.Day, 0, 0, 0, 0, loc)
}

func (k DateKey) Weekday() time.Weekday { return k.In(time.UTC).Weekday() }

// HourKey identifies one hour row of one date.
type HourKey struct {
	Date DateKey
	Hour int
}

func (k HourKey) String() string { return fmt.Sprintf("%sT%02d", k.Date, k.Hour) }

func (k HourKey) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText reads the YYYY-MM-DDTHH form written by MarshalText.
func (k *HourKey) UnmarshalText(b []byte) error {
	date, hour, ok := strings.Cut(string(b), "T")
	if !ok {
		return fmt.Errorf("hour key %q must look like 2006-01-02T15", b)
	}
	d, err := ParseDateKey(date)
	if err != nil {
		return err
	}
	h, err := strconv.Atoi(hour)
	if err != nil || h < 0 || h > 23 {
		return fmt.Errorf("hour key %q has an invalid hour", b)
	}
	*k = HourKey{Date: d, Hour: h}
	return nil
}

// BucketByDay groups events by the date of their start in loc. Events keep
// the order they were given in.
func BucketByDay(events []model.Event, loc *time.Location) map[DateKey][]model.Event {
	out := make(map[DateKey][]model.Event)
	for _, e := range events {
		k := KeyOf(e.Start.In(loc))
		out[k] = append(out[k], e)
	}
	return out
}

// BucketByHour groups events by the date and hour of their start in loc.
// Every hour is kept; clipping to the display range happens at render time.
func BucketByHour(events []model.Event, loc *time.Location) map[HourKey][]model.Event {
	out := make(map[HourKey][]model.Event)
	for _, e := range events {
		start := e.Start.In(loc)
		k := HourKey{Date: KeyOf(start), Hour: start.Hour()}
		out[k] = append(out[k], e)
	}
	return out
}

// Buckets is the renderable grouping of one window's events. Month windows
// fill Days, day and week windows fill Hours.
type Buckets struct {
	Window Window                    `json:"window"`
	Days   map[DateKey][]model.Event `json:"days,omitempty"`
	Hours  map[HourKey][]model.Event `json:"hours,omitempty"`
}

func Bucket(w Window, events []model.Event, loc *time.Location) Buckets {
	if w.Granularity == Month {
		return Buckets{Window: w, Days: BucketByDay(events, loc)}
	}
	return Buckets{Window: w, Hours: BucketByHour(events, loc)}
}

func (b Buckets) clone() Buckets {
	out := Buckets{Window: b.Window}
	if b.Days != nil {
		out.Days = make(map[DateKey][]model.Event, len(b.Days))
		for k, evs := range b.Days {
			out.Days[k] = slices.Clone(evs)
		}
	}
	if b.Hours != nil {
		out.Hours = make(map[HourKey][]model.Event, len(b.Hours))
		for k, evs := range b.Hours {
			out.Hours[k] = slices.Clone(evs)
		}
	}
	return out
}

// Len counts the bucketed events.
func (b Buckets) Len() int {
	n := 0
	for _, evs := range b.Days {
		n += len(evs)
	}
	for _, evs := range b.Hours {
		n += len(evs)
	}
	return n
}

// DisplayRange is the inclusive band of hours a day or week grid renders.
type DisplayRange struct {
	First int `yaml:"first" json:"first"`
	Last  int `yaml:"last" json:"last"`
}

var DefaultDisplay = DisplayRange{First: 8, Last: 18}

func (r DisplayRange) Visible(hour int) bool {
	return hour >= r.First && hour <= r.Last
}

// Hours lists the rendered hours in order.
func (r DisplayRange) Hours() []int {
	if r.Last < r.First {
		return nil
	}
	hours := make([]int, 0, r.Last-r.First+1)
	for h := r.First; h <= r.Last; h++ {
		hours = append(hours, h)
	}
	return hours
}

func (r DisplayRange) Validate() error {
	if r.First < 0 || r.Last > 23 || r.First > r.Last {
		return fmt.Errorf("display range %d-%d must lie within 0-23", r.First, r.Last)
	}
	return nil
}
