package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/academy/internal/api"
	"github.com/dukerupert/academy/internal/auth"
	"github.com/dukerupert/academy/internal/config"
	"github.com/dukerupert/academy/internal/container"
	"github.com/dukerupert/academy/internal/database"
	"github.com/dukerupert/academy/internal/logging"
	"github.com/dukerupert/academy/internal/store"
)

var (
	cfgFile   string
	logFormat string
	cfg       *config.Config
	logger    *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "academy",
	Short: "Client and live bridge for the academy learning platform",
	Long: `academy manages formations, courses, organizations, jobs, blog posts and
users of the learning platform, shows its calendar, and can serve a live
bridge that mirrors the platform over HTTP and WebSocket.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: initConfig,
}

func init() {
	rootCmd.AddGroup(&cobra.Group{ID: "resources", Title: "Resources:"})
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text or json")
}

func initConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}
	logger = logging.Setup(cfg.LogLevel, logFormat)
	return nil
}

func newClient() (*api.Client, error) {
	tokens := auth.WithExpiryCheck(auth.StaticToken(cfg.APIToken), time.Now)
	return api.New(api.Config{
		BaseURL:    cfg.APIURL,
		Timeout:    cfg.APITimeout,
		MaxRetries: cfg.APIRetries,
	}, tokens, logger.With("component", "api"))
}

// openCache opens the snapshot database when one is configured. The
// returned cache is nil otherwise.
func openCache() (*sql.DB, container.Cache, *store.SnapshotStore, error) {
	if cfg.DBPath == "" {
		return nil, nil, nil, nil
	}
	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open database: %w", err)
	}
	snaps, err := store.NewSnapshotStore(db, cfg.CachePassphrase)
	if err != nil {
		db.Close()
		return nil, nil, nil, err
	}
	return db, snaps, snaps, nil
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), cfg.APITimeout*time.Duration(cfg.APIRetries+2))
}
