package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/academy/internal/render"
	"github.com/dukerupert/academy/internal/store"
)

var runsLimit int

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect the local snapshot cache",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached collections",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(snaps *store.SnapshotStore, _ *store.RefreshRunStore) error {
			infos, err := snaps.List(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(infos))
			for _, info := range infos {
				rows = append(rows, []string{
					info.Resource,
					strconv.Itoa(info.Size),
					strconv.FormatBool(info.Encrypted),
					info.UpdatedAt.In(cfg.Location).Format("2006-01-02 15:04"),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), render.Table(render.DefaultStyles(), []string{"resource", "bytes", "encrypted", "updated"}, rows))
			return nil
		})
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear <resource>...",
	Short: "Drop cached collections",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(snaps *store.SnapshotStore, _ *store.RefreshRunStore) error {
			for _, name := range args {
				if err := snaps.Delete(cmd.Context(), name); err != nil {
					return fmt.Errorf("clear %s: %w", name, err)
				}
			}
			return nil
		})
	},
}

var cacheRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show recent refresh runs of the bridge",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(_ *store.SnapshotStore, runs *store.RefreshRunStore) error {
			recent, err := runs.Recent(cmd.Context(), runsLimit)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(recent))
			for _, r := range recent {
				status := "ok"
				if r.Error != "" {
					status = r.Error
				}
				rows = append(rows, []string{
					r.StartedAt.In(cfg.Location).Format("2006-01-02 15:04:05"),
					r.Job,
					r.Duration.Round(time.Millisecond).String(),
					status,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), render.Table(render.DefaultStyles(), []string{"started", "job", "took", "result"}, rows))
			return nil
		})
	},
}

func init() {
	cacheRunsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "number of runs")
	cacheCmd.AddCommand(cacheListCmd, cacheClearCmd, cacheRunsCmd)
	rootCmd.AddCommand(cacheCmd)
}

func withStore(fn func(*store.SnapshotStore, *store.RefreshRunStore) error) error {
	db, _, snaps, err := openCache()
	if err != nil {
		return err
	}
	if db == nil {
		return errors.New("no cache configured, set ACADEMY_DB_PATH")
	}
	defer db.Close()
	return fn(snaps, store.NewRefreshRunStore(db))
}
