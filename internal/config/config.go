// Package config implements TOML configuration loading, validation, and
// platform-specific path resolution for the cache core CLI.
package config

// Config is the top-level configuration structure for a single cache
// instance. The core tracks one store against one remote account, so there
// is no profile/drive layering the way a multi-account sync client needs —
// every section here is global.
type Config struct {
	Store   StoreConfig   `toml:"store"`
	Refresh RefreshConfig `toml:"refresh"`
	Logging LoggingConfig `toml:"logging"`
	Notify  NotifyConfig  `toml:"notify"`
}

// StoreConfig controls the embedded SQLite database.
type StoreConfig struct {
	Path string `toml:"path"`
}

// RefreshConfig controls the directory refresher's background worker pool
// and its retry-on-busy policy.
type RefreshConfig struct {
	MaxConcurrent  int    `toml:"max_concurrent"`
	BusyRetryDelay string `toml:"busy_retry_delay"`
}

// LoggingConfig controls log output behavior.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// NotifyConfig controls the optional push-invalidation listener that lets
// the refresher react to a remote push instead of relying on callers to
// poll RefreshDir.
type NotifyConfig struct {
	Enabled  bool   `toml:"enabled"`
	Endpoint string `toml:"endpoint"`
}
