package recurrence

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

const DefaultMaxOccurrences = 500

// Occurrence is one concrete instance of a recurring event.
type Occurrence struct {
	Start time.Time
	End   time.Time
}

// Expand generates the occurrences of a recurring event whose start falls in
// [from, to). lines are the event's recurrence properties (RRULE, RDATE,
// EXDATE) as the calendar API sends them. start/end bound the first instance
// and fix the duration. truncated reports that max cut the result short.
func Expand(lines []string, start, end, from, to time.Time, max int) (occ []Occurrence, truncated bool, err error) {
	if !to.After(from) {
		return nil, false, errors.New("recurrence: empty range")
	}
	if max <= 0 {
		max = DefaultMaxOccurrences
	}
	loc := start.Location()

	set := &rrule.Set{}
	rules := 0
	for _, line := range lines {
		name, params, value := splitProperty(line)
		switch name {
		case "RRULE":
			opt, err := rrule.StrToROptionInLocation(value, loc)
			if err != nil {
				return nil, false, fmt.Errorf("parse RRULE %q: %w", value, err)
			}
			opt.Dtstart = start
			r, err := rrule.NewRRule(*opt)
			if err != nil {
				return nil, false, fmt.Errorf("build RRULE %q: %w", value, err)
			}
			set.RRule(r)
			rules++
		case "RDATE", "EXDATE":
			times, err := parseDates(params, value, loc)
			if err != nil {
				return nil, false, fmt.Errorf("parse %s: %w", name, err)
			}
			for _, t := range times {
				if name == "RDATE" {
					set.RDate(t)
				} else {
					set.ExDate(t)
				}
			}
		}
	}
	if rules == 0 {
		// Not recurring: the event is its own single occurrence.
		if !start.Before(from) && start.Before(to) {
			return []Occurrence{{Start: start, End: end}}, false, nil
		}
		return nil, false, nil
	}

	duration := end.Sub(start)
	for _, s := range set.Between(from, to, true) {
		if !s.Before(to) {
			continue
		}
		if len(occ) == max {
			truncated = true
			break
		}
		occ = append(occ, Occurrence{Start: s, End: s.Add(duration)})
	}
	return occ, truncated, nil
}

// splitProperty splits "EXDATE;TZID=Europe/Paris:20240422T093000" into its
// name, parameters and value.
func splitProperty(line string) (name string, params map[string]string, value string) {
	line = strings.TrimSpace(line)
	head, value, ok := strings.Cut(line, ":")
	if !ok {
		return "", nil, ""
	}
	parts := strings.Split(head, ";")
	name = strings.ToUpper(parts[0])
	params = make(map[string]string, len(parts)-1)
	for _, p := range parts[1:] {
		k, v, _ := strings.Cut(p, "=")
		params[strings.ToUpper(k)] = v
	}
	return name, params, value
}

func parseDates(params map[string]string, value string, loc *time.Location) ([]time.Time, error) {
	if tz := params["TZID"]; tz != "" {
		z, err := time.LoadLocation(tz)
		if err != nil {
			return nil, fmt.Errorf("load TZID %q: %w", tz, err)
		}
		loc = z
	}

	var out []time.Time
	for _, v := range strings.Split(value, ",") {
		v = strings.TrimSpace(v)
		var (
			t   time.Time
			err error
		)
		switch {
		case strings.HasSuffix(v, "Z"):
			t, err = time.Parse("20060102T150405Z", v)
		case len(v) == len("20060102"):
			t, err = time.ParseInLocation("20060102", v, loc)
		default:
			t, err = time.ParseInLocation("20060102T150405", v, loc)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
