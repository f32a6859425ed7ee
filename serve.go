package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/filen/filen-cache-core/internal/config"
	"github.com/filen/filen-cache-core/internal/notify"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the refresh pool and optional push-invalidation listener as a long-lived daemon",
		Long:  "Serve blocks and holds the refresh pool open so background work scheduled by ScheduleOne (normally the push listener) has somewhere to run. With notify.enabled = true and notify.endpoint set in the config file, it also dials the push endpoint and reacts to every frame naming a cached uuid. SIGINT/SIGTERM trigger a graceful shutdown; a second signal forces an immediate exit.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := mustCLIContext(cmd.Context())

			pidPath := filepath.Join(config.DefaultDataDir(), "filen-cache-core.pid")

			cleanup, err := writePIDFile(pidPath)
			if err != nil {
				return fmt.Errorf("starting daemon: %w", err)
			}
			defer cleanup()

			ctx := shutdownContext(cmd.Context(), cc.Logger)

			if !cc.Cfg.Notify.Enabled || cc.Cfg.Notify.Endpoint == "" {
				cc.Logger.Info("push-invalidation disabled, running poll-only")
				<-ctx.Done()
				return nil
			}

			listener := notify.New(cc.Cfg.Notify.Endpoint, cc.Pool, cc.Store, cc.Logger)

			cc.Logger.Info("dialing push endpoint", "endpoint", cc.Cfg.Notify.Endpoint)

			if err := listener.Run(ctx); err != nil {
				return fmt.Errorf("push listener: %w", err)
			}

			return nil
		},
	}
}
