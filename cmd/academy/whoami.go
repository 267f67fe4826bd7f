package main

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/academy/internal/auth"
	"github.com/dukerupert/academy/internal/render"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the claims of the configured API token",
	Long:  `Decode the configured API token locally. The signature is not verified.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.APIToken == "" {
			return auth.ErrNoToken
		}
		s, ok := auth.Inspect(cfg.APIToken)
		if !ok {
			return errors.New("token is opaque, not a JWT")
		}
		out := struct {
			auth.Session
			Expired bool `json:"expired"`
		}{s, s.Expired(time.Now())}
		return render.JSON(cmd.OutOrStdout(), out)
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}
