package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/academy/internal/calendar"
	"github.com/dukerupert/academy/internal/handler"
	"github.com/dukerupert/academy/internal/refresh"
	"github.com/dukerupert/academy/internal/server"
	"github.com/dukerupert/academy/internal/store"
	ws "github.com/dukerupert/academy/internal/websocket"
)

const runRetention = 7 * 24 * time.Hour

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the live bridge",
	Long: `serve mirrors every platform resource and the current calendar week,
refreshes them on the configured schedule, and exposes them over HTTP with a
WebSocket change feed.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := newClient()
	if err != nil {
		return err
	}
	db, cache, _, err := openCache()
	if err != nil {
		return err
	}
	var recorder refresh.Recorder
	var runs *store.RefreshRunStore
	if db != nil {
		defer db.Close()
		runs = store.NewRefreshRunStore(db)
		recorder = runs
	}

	hub := ws.NewHub(logger)
	ents := entities(client, cache, logger)
	var collections []handler.Collection
	for _, name := range sortedNames(ents) {
		e := ents[name]
		if ok, err := e.restore(ctx); err != nil {
			logger.Warn("restore snapshot", "resource", name, "error", err)
		} else if ok {
			logger.Debug("serving cached snapshot until first refresh", "resource", name)
		}
		c, unbind := e.bind(hub)
		defer unbind()
		defer e.close()
		collections = append(collections, c)
	}

	fetcher := calendar.NewRemoteFetcher(client, cfg.Location, logger.With("component", "calendar"))
	view := calendar.NewView(fetcher, calendar.ViewOptions{
		Granularity: calendar.Week,
		Anchor:      time.Now().In(cfg.Location),
		Location:    cfg.Location,
		Logger:      logger,
	})
	defer view.Close()
	defer view.Subscribe(func(s calendar.Snapshot) {
		switch s.State {
		case calendar.StateReady:
			hub.Publish("calendar", "ready", "", s.Window)
		case calendar.StateError:
			hub.PublishError("calendar", "", s.Err)
		}
	})()

	srv := server.New(server.Config{
		Token:          cfg.BridgeToken,
		OriginPatterns: cfg.AllowedOrigins,
		Location:       cfg.Location,
		Display:        cfg.Display,
	}, hub, fetcher, collections, logger)
	if cfg.BridgeToken == "" {
		logger.Warn("bridge token not set, HTTP endpoints are open")
	}

	sched, err := refresh.New(cfg.Refresh, refresh.Options{
		Location: cfg.Location,
		Recorder: recorder,
		Logger:   logger,
	})
	if err != nil {
		return err
	}
	for _, name := range sortedNames(ents) {
		if err := sched.Add(name, ents[name].refresh); err != nil {
			return err
		}
	}
	// The live view follows the current week across midnight.
	if err := sched.Add("calendar", func(ctx context.Context) error {
		return view.Jump(ctx, time.Now().In(cfg.Location))
	}); err != nil {
		return err
	}

	initCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	if err := sched.RunNow(initCtx); err != nil {
		logger.Warn("initial load incomplete", "error", err)
	}
	cancel()
	sched.Start()
	defer sched.Stop()

	go maintain(ctx, srv, runs)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("bridge listening", "addr", httpServer.Addr, "next_refresh", sched.Next())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	return nil
}

// maintain evicts idle rate-limit windows and prunes old refresh runs.
func maintain(ctx context.Context, srv *server.Server, runs *store.RefreshRunStore) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			srv.Limiter().Cleanup()
			if runs == nil {
				continue
			}
			n, err := runs.Prune(ctx, time.Now().Add(-runRetention))
			if err != nil {
				logger.Warn("prune refresh runs", "error", err)
			} else if n > 0 {
				logger.Debug("pruned refresh runs", "count", n)
			}
		}
	}
}
