package calendar

import (
	"testing"
	"time"
)

func TestWindowForWeekStartsMonday(t *testing.T) {
	wed := time.Date(2024, 4, 17, 15, 45, 0, 0, time.UTC)
	w := WindowFor(wed, Week)

	wantStart := time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC)
	wantEnd := time.Date(2024, 4, 22, 0, 0, 0, 0, time.UTC)
	if !w.Start.Equal(wantStart) || !w.End.Equal(wantEnd) {
		t.Errorf("window = [%v, %v), want [%v, %v)", w.Start, w.End, wantStart, wantEnd)
	}
	if w.Start.Weekday() != time.Monday || w.End.Weekday() != time.Monday {
		t.Errorf("window bounds are %v and %v, want Mondays", w.Start.Weekday(), w.End.Weekday())
	}
}

func TestWindowForWeekOnSunday(t *testing.T) {
	sun := time.Date(2024, 4, 21, 23, 0, 0, 0, time.UTC)
	w := WindowFor(sun, Week)
	if want := time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC); !w.Start.Equal(want) {
		t.Errorf("start = %v, want %v", w.Start, want)
	}
}

func TestWindowForDayAndMonth(t *testing.T) {
	anchor := time.Date(2024, 2, 10, 13, 0, 0, 0, time.UTC)

	day := WindowFor(anchor, Day)
	if !day.Start.Equal(time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)) || day.End.Sub(day.Start) != 24*time.Hour {
		t.Errorf("day window = [%v, %v)", day.Start, day.End)
	}

	month := WindowFor(anchor, Month)
	if !month.Start.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)) || !month.End.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("month window = [%v, %v)", month.Start, month.End)
	}
	if n := len(month.Days()); n != 29 {
		t.Errorf("February 2024 has %d days, want 29", n)
	}
}

func TestNavigateMonthClampsToFirst(t *testing.T) {
	jan31 := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	next := Navigate(jan31, Month, 1)
	if next.Month() != time.February || next.Day() != 1 {
		t.Errorf("next = %v, want 2024-02-01", next)
	}
	if got := WindowFor(next, Month).Start.Month(); got != jan31.Month()+1 {
		t.Errorf("window month = %v, want February", got)
	}

	prev := Navigate(time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), Month, -1)
	if prev.Month() != time.February {
		t.Errorf("previous = %v, want February", prev)
	}
}

func TestNavigateDayAndWeek(t *testing.T) {
	anchor := time.Date(2024, 4, 17, 10, 0, 0, 0, time.UTC)
	if got := Navigate(anchor, Day, -1); got.Day() != 16 {
		t.Errorf("previous day = %v", got)
	}
	got := Navigate(anchor, Week, 1)
	if want := time.Date(2024, 4, 22, 0, 0, 0, 0, time.UTC); !WindowFor(got, Week).Start.Equal(want) {
		t.Errorf("next week starts %v, want %v", WindowFor(got, Week).Start, want)
	}
}

func TestWindowInLocation(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		t.Skipf("no tzdata: %v", err)
	}
	// 23:30 UTC on Sunday is already Monday in Paris.
	anchor := time.Date(2024, 4, 14, 23, 30, 0, 0, time.UTC).In(paris)
	w := WindowFor(anchor, Week)
	if want := time.Date(2024, 4, 15, 0, 0, 0, 0, paris); !w.Start.Equal(want) {
		t.Errorf("start = %v, want %v", w.Start, want)
	}
}

func TestParseGranularity(t *testing.T) {
	for in, want := range map[string]Granularity{"day": Day, "Week": Week, " MONTH ": Month} {
		got, err := ParseGranularity(in)
		if err != nil || got != want {
			t.Errorf("ParseGranularity(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseGranularity("year"); err == nil {
		t.Error("expected error for unknown granularity")
	}
}
