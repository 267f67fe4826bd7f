package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/academy/internal/calendar"
	"github.com/dukerupert/academy/internal/handler"
	"github.com/dukerupert/academy/internal/middleware"
	ws "github.com/dukerupert/academy/internal/websocket"
)

// Config holds the bridge settings that are not collaborators.
type Config struct {
	Token          string
	OriginPatterns []string
	Location       *time.Location
	Display        calendar.DisplayRange
	RefreshLimit   int
	RefreshPeriod  time.Duration
}

// Server exposes container snapshots, the calendar and the live feed over
// HTTP.
type Server struct {
	cfg       Config
	hub       *ws.Hub
	resourceH *handler.ResourceHandler
	calendarH *handler.CalendarHandler
	limiter   *middleware.Limiter
	started   time.Time
	logger    *slog.Logger
}

func New(cfg Config, hub *ws.Hub, events calendar.Fetcher, collections []handler.Collection, logger *slog.Logger) *Server {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.RefreshLimit == 0 {
		cfg.RefreshLimit = 6
	}
	if cfg.RefreshPeriod == 0 {
		cfg.RefreshPeriod = time.Minute
	}
	return &Server{
		cfg:       cfg,
		hub:       hub,
		resourceH: handler.NewResourceHandler(logger.With("component", "resource"), collections...),
		calendarH: handler.NewCalendarHandler(events, cfg.Location, cfg.Display, logger.With("component", "calendar")),
		limiter:   middleware.NewLimiter(cfg.RefreshLimit, cfg.RefreshPeriod),
		started:   time.Now(),
		logger:    logger,
	}
}

// Limiter returns the refresh rate limiter for cleanup tasks.
func (s *Server) Limiter() *middleware.Limiter {
	return s.limiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()
	outerMux.HandleFunc("GET /health", s.healthHandler)

	protectedMux := http.NewServeMux()
	protectedMux.HandleFunc("GET /ws", ws.Handler(s.hub, s.cfg.OriginPatterns, s.logger.With("component", "websocket")))
	protectedMux.HandleFunc("GET /api/calendar", s.calendarH.Show)
	protectedMux.HandleFunc("GET /api/calendar.ics", s.calendarH.Export)
	protectedMux.HandleFunc("GET /api/{resource}", s.resourceH.List)
	protectedMux.HandleFunc("GET /api/{resource}/{id}", s.resourceH.Get)
	protectedMux.Handle("POST /api/{resource}/refresh", middleware.Limit(s.limiter)(http.HandlerFunc(s.resourceH.Refresh)))

	outerMux.Handle("/", middleware.RequireToken(s.cfg.Token)(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"clients": s.hub.ClientCount(),
		"uptime":  time.Since(s.started).Round(time.Second).String(),
	})
}
