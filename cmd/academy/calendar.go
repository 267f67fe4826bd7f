package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/academy/internal/calendar"
	"github.com/dukerupert/academy/internal/render"
)

var (
	calendarDate string
	calendarStep int
	exportOut    string
)

var calendarCmd = &cobra.Command{
	Use:       "calendar [day|week|month]",
	Short:     "Show the calendar",
	Long:      `Show one day, week (Monday first) or month of calendar events, recurrences expanded.`,
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"day", "week", "month"},
	RunE:      runCalendar,
}

var calendarExportCmd = &cobra.Command{
	Use:       "export [day|week|month]",
	Short:     "Write the calendar window as an iCalendar file",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"day", "week", "month"},
	RunE:      runCalendarExport,
}

func init() {
	for _, c := range []*cobra.Command{calendarCmd, calendarExportCmd} {
		c.Flags().StringVar(&calendarDate, "date", "", "anchor date, YYYY-MM-DD (default today)")
		c.Flags().IntVar(&calendarStep, "next", 0, "move this many windows forward, negative for back")
	}
	calendarExportCmd.Flags().StringVarP(&exportOut, "out", "o", "-", "output file, - for stdout")
	calendarCmd.AddCommand(calendarExportCmd)
	rootCmd.AddCommand(calendarCmd)
}

// loadView opens a view on the requested window and loads it.
func loadView(cmd *cobra.Command, args []string) (*calendar.View, error) {
	g := calendar.Week
	if len(args) == 1 {
		var err error
		if g, err = calendar.ParseGranularity(args[0]); err != nil {
			return nil, err
		}
	}
	anchor := time.Now().In(cfg.Location)
	if calendarDate != "" {
		var err error
		if anchor, err = time.ParseInLocation("2006-01-02", calendarDate, cfg.Location); err != nil {
			return nil, fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
		}
	}
	anchor = calendar.Navigate(anchor, g, calendarStep)

	client, err := newClient()
	if err != nil {
		return nil, err
	}
	fetcher := calendar.NewRemoteFetcher(client, cfg.Location, logger.With("component", "calendar"))
	v := calendar.NewView(fetcher, calendar.ViewOptions{
		Granularity: g,
		Anchor:      anchor,
		Location:    cfg.Location,
		Logger:      logger,
	})

	ctx, cancel := commandContext(cmd)
	defer cancel()
	if err := v.Load(ctx); err != nil {
		v.Close()
		return nil, err
	}
	return v, nil
}

func runCalendar(cmd *cobra.Command, args []string) error {
	v, err := loadView(cmd, args)
	if err != nil {
		return err
	}
	defer v.Close()

	snap := v.Snapshot()
	st := render.DefaultStyles()
	out := cmd.OutOrStdout()
	if snap.Window.Granularity == calendar.Month {
		today := calendar.KeyOf(time.Now().In(cfg.Location))
		_, err = fmt.Fprint(out, render.Month(snap, today, st))
	} else {
		_, err = fmt.Fprint(out, render.Agenda(snap, cfg.Display, st))
	}
	return err
}

func runCalendarExport(cmd *cobra.Command, args []string) error {
	v, err := loadView(cmd, args)
	if err != nil {
		return err
	}
	defer v.Close()

	out := cmd.OutOrStdout()
	if exportOut != "-" {
		f, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("create %s: %w", exportOut, err)
		}
		defer f.Close()
		out = f
	}
	return calendar.ExportICS(out, v.Snapshot().Events, time.Now())
}
