// Package render draws calendar snapshots and entities for the terminal.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/dukerupert/academy/internal/calendar"
	"github.com/dukerupert/academy/internal/model"
)

type Styles struct {
	Header  lipgloss.Style
	Weekday lipgloss.Style
	Day     lipgloss.Style
	Today   lipgloss.Style
	Busy    lipgloss.Style
	Muted   lipgloss.Style
	Error   lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		Weekday: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Day:     lipgloss.NewStyle().Width(4).Align(lipgloss.Right),
		Today:   lipgloss.NewStyle().Width(4).Align(lipgloss.Right).Reverse(true),
		Busy:    lipgloss.NewStyle().Width(4).Align(lipgloss.Right).Foreground(lipgloss.Color("214")),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Error:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
	}
}

var weekdays = []string{"Mo", "Tu", "We", "Th", "Fr", "Sa", "Su"}

// Month draws the grid of a month snapshot followed by the events of each
// busy day. Busy days are marked with a trailing asterisk.
func Month(snap calendar.Snapshot, today calendar.DateKey, st Styles) string {
	var b strings.Builder
	if snap.State == calendar.StateError {
		return st.Error.Render(snap.Err) + "\n"
	}

	b.WriteString(st.Header.Render(snap.Window.Start.Format("January 2006")))
	b.WriteString("\n")
	var head []string
	for _, d := range weekdays {
		head = append(head, st.Day.Render(d))
	}
	b.WriteString(st.Weekday.Render(lipgloss.JoinHorizontal(lipgloss.Top, head...)))
	b.WriteString("\n")

	for _, row := range calendar.MonthGrid(snap.Window.Start) {
		var cells []string
		for _, c := range row {
			switch {
			case c.Empty():
				cells = append(cells, st.Day.Render(""))
			case c.Date == today:
				cells = append(cells, st.Today.Render(dayLabel(c.Date, snap.Buckets)))
			case len(snap.Buckets.Days[c.Date]) > 0:
				cells = append(cells, st.Busy.Render(dayLabel(c.Date, snap.Buckets)))
			default:
				cells = append(cells, st.Day.Render(dayLabel(c.Date, snap.Buckets)))
			}
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
		b.WriteString("\n")
	}

	loc := snap.Window.Start.Location()
	for _, day := range snap.Window.Days() {
		events := snap.Buckets.Days[day]
		if len(events) == 0 {
			continue
		}
		b.WriteString("\n")
		b.WriteString(st.Header.Render(day.In(loc).Format("Mon 02 Jan")))
		b.WriteString("\n")
		for _, e := range events {
			b.WriteString("  " + eventLine(e, loc) + "\n")
		}
	}
	return b.String()
}

func dayLabel(d calendar.DateKey, bk calendar.Buckets) string {
	if len(bk.Days[d]) > 0 {
		return fmt.Sprintf("%d*", d.Day)
	}
	return fmt.Sprintf("%d", d.Day)
}

// Agenda lists a day or week snapshot hour by hour, keeping only the hours
// of display. All-day events head their day; timed events outside the band
// are counted but not listed.
func Agenda(snap calendar.Snapshot, display calendar.DisplayRange, st Styles) string {
	if snap.State == calendar.StateError {
		return st.Error.Render(snap.Err) + "\n"
	}
	var b strings.Builder
	loc := snap.Window.Start.Location()

	allDay := make(map[calendar.DateKey][]model.Event)
	for _, e := range snap.Events {
		if e.AllDay {
			k := calendar.KeyOf(e.Start.In(loc))
			allDay[k] = append(allDay[k], e)
		}
	}

	for i, day := range snap.Window.Days() {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(st.Header.Render(day.In(loc).Format("Monday 02 January 2006")))
		b.WriteString("\n")
		for _, e := range allDay[day] {
			b.WriteString("  " + eventLine(e, loc) + "\n")
		}

		hidden := 0
		listed := 0
		for hk, events := range snap.Buckets.Hours {
			if hk.Date == day && !display.Visible(hk.Hour) {
				hidden += timed(events)
			}
		}
		for _, h := range display.Hours() {
			for _, e := range snap.Buckets.Hours[calendar.HourKey{Date: day, Hour: h}] {
				if e.AllDay {
					continue
				}
				b.WriteString("  " + eventLine(e, loc) + "\n")
				listed++
			}
		}
		if listed == 0 && len(allDay[day]) == 0 {
			b.WriteString(st.Muted.Render("  no events") + "\n")
		}
		if hidden > 0 {
			b.WriteString(st.Muted.Render(fmt.Sprintf("  +%d outside %02d:00-%02d:59", hidden, display.First, display.Last)) + "\n")
		}
	}
	return b.String()
}

func timed(events []model.Event) int {
	n := 0
	for _, e := range events {
		if !e.AllDay {
			n++
		}
	}
	return n
}

func eventLine(e model.Event, loc *time.Location) string {
	when := "all day    "
	if !e.AllDay {
		when = e.Start.In(loc).Format("15:04") + "-" + e.End.In(loc).Format("15:04")
	}
	line := when + " " + e.Title
	if e.Location != "" {
		line += " (" + e.Location + ")"
	}
	if e.Participants > 0 {
		line += fmt.Sprintf(" [%d]", e.Participants)
	}
	return line
}

// JSON writes v indented, for entity output.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
