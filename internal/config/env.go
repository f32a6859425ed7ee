package config

import "os"

// Environment variable names for overrides.
const (
	EnvConfig = "CACHE_CORE_CONFIG"
	EnvStore  = "CACHE_CORE_STORE"
)

// EnvOverrides holds values derived from environment variables. These are
// read by ReadEnvOverrides; callers apply the relevant fields themselves.
type EnvOverrides struct {
	ConfigPath string // CACHE_CORE_CONFIG: override config file path
	StorePath  string // CACHE_CORE_STORE: override SQLite database path
}

// ReadEnvOverrides reads environment variables and returns any overrides found.
func ReadEnvOverrides() EnvOverrides {
	return EnvOverrides{
		ConfigPath: os.Getenv(EnvConfig),
		StorePath:  os.Getenv(EnvStore),
	}
}

// CLIOverrides holds values supplied on the command line, which take
// precedence over both the config file and the environment.
type CLIOverrides struct {
	ConfigPath string
	StorePath  string
}

// ResolveConfigPath determines the config file path using the three-layer
// priority: CLI flag > environment variable > platform default.
func ResolveConfigPath(env EnvOverrides, cli CLIOverrides) string {
	cfgPath := DefaultConfigPath()

	if env.ConfigPath != "" {
		cfgPath = env.ConfigPath
	}

	if cli.ConfigPath != "" {
		cfgPath = cli.ConfigPath
	}

	return cfgPath
}

// ResolveStorePath determines the SQLite database path using the same
// three-layer priority, falling back to DefaultDataDir()/cache.db when
// the config file leaves Store.Path empty.
func ResolveStorePath(cfg *Config, env EnvOverrides, cli CLIOverrides) string {
	path := cfg.Store.Path
	if path == "" {
		path = defaultStoreFile()
	}

	if env.StorePath != "" {
		path = env.StorePath
	}

	if cli.StorePath != "" {
		path = cli.StorePath
	}

	return path
}
