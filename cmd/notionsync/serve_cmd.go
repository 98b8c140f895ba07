package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/openmined/notionsync/internal/config"
	"github.com/openmined/notionsync/internal/controlplane"
	"github.com/openmined/notionsync/internal/vault"
	"github.com/openmined/notionsync/internal/version"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newServeCmd())
}

func newServeCmd() *cobra.Command {
	var interval time.Duration
	var rate string
	var noAuth bool
	var watch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local control plane and the scheduled sync",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			slog.Info("notionsync", "version", version.Version, "revision", version.Revision, "build", version.BuildDate)

			a, err := newApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			token := a.cfg.Token
			if token == "" && !noAuth {
				token = uuid.NewString()
				fmt.Fprintln(cmd.OutOrStdout(), cyan("control plane token:"), token)
			}

			svc := &controlplane.Services{
				Engine:    a.engine,
				Settings:  a.settings,
				Databases: a.client,
				Journal:   a.journal,
			}
			if watch {
				svc.Watcher = vault.NewWatcher(a.vault)
			}
			daemon, err := controlplane.NewDaemon(&controlplane.Config{
				Addr:      a.cfg.Addr,
				AuthToken: token,
				Rate:      rate,
			}, svc, interval)
			if err != nil {
				return err
			}

			defer slog.Info("Bye!")
			if err := daemon.Start(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("daemon start", "error", err)
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringP("addr", "a", config.DefaultAddr, "address to bind the control plane")
	cmd.Flags().StringP("token", "t", "", "control plane access token, generated when empty")
	cmd.Flags().BoolVar(&noAuth, "no-auth", false, "serve without a token")
	cmd.Flags().DurationVarP(&interval, "interval", "i", 5*time.Minute, "time between scheduled syncs, 0 disables them")
	cmd.Flags().BoolVarP(&watch, "watch", "w", true, "sync shortly after documents change")
	cmd.Flags().StringVar(&rate, "rate", "", "requests per client, e.g. 20-S")
	return cmd
}
