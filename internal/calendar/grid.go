package calendar

import "time"

// Cell is one square of a month grid. Padding cells have a zero Date.
type Cell struct {
	Date DateKey `json:"date,omitzero"`
}

func (c Cell) Empty() bool { return c.Date.Day == 0 }

// MonthGrid lays out the month containing anchor as Monday-first rows of
// seven cells. The first row is padded for the weekdays before day 1; the
// last row stops at the final day.
func MonthGrid(anchor time.Time) [][]Cell {
	first := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, time.UTC)
	days := first.AddDate(0, 1, -1).Day()

	cells := make([]Cell, mondayOffset(first), mondayOffset(first)+days)
	for d := 1; d <= days; d++ {
		cells = append(cells, Cell{Date: DateKey{Year: first.Year(), Month: first.Month(), Day: d}})
	}

	var rows [][]Cell
	for len(cells) > 0 {
		n := min(7, len(cells))
		rows = append(rows, cells[:n:n])
		cells = cells[n:]
	}
	return rows
}
