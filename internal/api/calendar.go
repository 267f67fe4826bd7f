package api

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/dukerupert/academy/internal/model"
)

const calendarPath = "/calendar/events"

// CalendarEvents fetches raw events for [start, end).
func (c *Client) CalendarEvents(ctx context.Context, start, end time.Time) ([]model.RawEvent, error) {
	q := url.Values{}
	q.Set("startDate", start.Format(time.RFC3339))
	q.Set("endDate", end.Format(time.RFC3339))

	resp, err := c.do(ctx, http.MethodGet, calendarPath, q, nil)
	if err != nil {
		return nil, err
	}
	events, ok := decodeEvents(resp.body)
	if !ok {
		return nil, shapeError(http.MethodGet, calendarPath, resp.requestID, "expected event array")
	}
	return events, nil
}
