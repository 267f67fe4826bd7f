package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/academy/internal/calendar"
)

type CalendarHandler struct {
	fetcher calendar.Fetcher
	loc     *time.Location
	display calendar.DisplayRange
	logger  *slog.Logger
}

func NewCalendarHandler(f calendar.Fetcher, loc *time.Location, display calendar.DisplayRange, logger *slog.Logger) *CalendarHandler {
	return &CalendarHandler{fetcher: f, loc: loc, display: display, logger: logger}
}

type calendarResponse struct {
	calendar.Snapshot
	Hours []int             `json:"hours,omitempty"`
	Grid  [][]calendar.Cell `json:"grid,omitempty"`
}

// view builds a request-scoped view from ?view=day|week|month&date=YYYY-MM-DD
// and loads it.
func (h *CalendarHandler) view(w http.ResponseWriter, r *http.Request) (calendar.Snapshot, bool) {
	g := calendar.Week
	if v := r.URL.Query().Get("view"); v != "" {
		var err error
		if g, err = calendar.ParseGranularity(v); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return calendar.Snapshot{}, false
		}
	}
	anchor := time.Now().In(h.loc)
	if d := r.URL.Query().Get("date"); d != "" {
		var err error
		if anchor, err = time.ParseInLocation("2006-01-02", d, h.loc); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date must be YYYY-MM-DD"})
			return calendar.Snapshot{}, false
		}
	}

	v := calendar.NewView(h.fetcher, calendar.ViewOptions{Granularity: g, Anchor: anchor, Location: h.loc, Logger: h.logger})
	defer v.Close()
	if err := v.Load(r.Context()); err != nil {
		writeError(w, err)
		return calendar.Snapshot{}, false
	}
	return v.Snapshot(), true
}

func (h *CalendarHandler) Show(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.view(w, r)
	if !ok {
		return
	}
	resp := calendarResponse{Snapshot: snap}
	if snap.Window.Granularity == calendar.Month {
		resp.Grid = calendar.MonthGrid(snap.Window.Start)
	} else {
		resp.Hours = h.display.Hours()
	}
	writeJSON(w, http.StatusOK, resp)
}

// Export serves the window as an iCalendar file.
func (h *CalendarHandler) Export(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.view(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="academy.ics"`)
	if err := calendar.ExportICS(w, snap.Events, time.Now()); err != nil {
		h.logger.Error("export calendar", "error", err)
	}
}
