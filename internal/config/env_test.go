package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveConfigPathPriority(t *testing.T) {
	require.Equal(t, "/from/cli", ResolveConfigPath(
		EnvOverrides{ConfigPath: "/from/env"},
		CLIOverrides{ConfigPath: "/from/cli"},
	))

	require.Equal(t, "/from/env", ResolveConfigPath(
		EnvOverrides{ConfigPath: "/from/env"},
		CLIOverrides{},
	))
}

func TestResolveStorePathFallsBackToDefault(t *testing.T) {
	cfg := DefaultConfig()
	path := ResolveStorePath(cfg, EnvOverrides{}, CLIOverrides{})
	require.NotEmpty(t, path)
}

func TestResolveStorePathPrefersConfigFile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Store.Path = "/from/config"

	require.Equal(t, "/from/config", ResolveStorePath(cfg, EnvOverrides{}, CLIOverrides{}))
	require.Equal(t, "/from/env", ResolveStorePath(cfg, EnvOverrides{StorePath: "/from/env"}, CLIOverrides{}))
	require.Equal(t, "/from/cli", ResolveStorePath(cfg, EnvOverrides{StorePath: "/from/env"}, CLIOverrides{StorePath: "/from/cli"}))
}
