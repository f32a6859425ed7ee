package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/filen/filen-cache-core/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
	}

	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display effective configuration after all overrides",
		RunE:  runConfigShow,
	}
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())

	cfg, storePath, err := config.Resolve(
		config.ReadEnvOverrides(),
		config.CLIOverrides{ConfigPath: flagConfigPath, StorePath: flagStorePath},
		cc.Logger,
	)
	if err != nil {
		return err
	}

	if !wantTable() {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(cfg)
	}

	return config.RenderEffective(cfg, storePath, os.Stdout)
}
