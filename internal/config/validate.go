package config

import (
	"errors"
	"fmt"
	"time"
)

// Validation range constants.
const (
	minConcurrent = 1
	maxConcurrent = 64
	minBusyRetry  = time.Millisecond
	maxBusyRetry  = 10 * time.Second
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true,
}

var validLogFormats = map[string]bool{
	"auto": true, "text": true, "json": true,
}

// Validate checks all configuration values and returns all errors found.
// It accumulates every error rather than stopping at the first, so users
// see a complete report and can fix all issues in one pass.
func Validate(cfg *Config) error {
	var errs []error

	errs = append(errs, validateRefresh(&cfg.Refresh)...)
	errs = append(errs, validateLogging(&cfg.Logging)...)
	errs = append(errs, validateNotify(&cfg.Notify)...)

	return errors.Join(errs...)
}

func validateRefresh(r *RefreshConfig) []error {
	var errs []error

	if r.MaxConcurrent < minConcurrent || r.MaxConcurrent > maxConcurrent {
		errs = append(errs, fmt.Errorf("refresh.max_concurrent: must be between %d and %d, got %d",
			minConcurrent, maxConcurrent, r.MaxConcurrent))
	}

	d, err := time.ParseDuration(r.BusyRetryDelay)
	if err != nil {
		errs = append(errs, fmt.Errorf("refresh.busy_retry_delay: %w", err))
	} else if d < minBusyRetry || d > maxBusyRetry {
		errs = append(errs, fmt.Errorf("refresh.busy_retry_delay: must be between %s and %s, got %s",
			minBusyRetry, maxBusyRetry, d))
	}

	return errs
}

func validateLogging(l *LoggingConfig) []error {
	var errs []error

	if !validLogLevels[l.Level] {
		errs = append(errs, fmt.Errorf("logging.level: must be one of debug, info, warn, error; got %q", l.Level))
	}

	if !validLogFormats[l.Format] {
		errs = append(errs, fmt.Errorf("logging.format: must be one of auto, text, json; got %q", l.Format))
	}

	return errs
}

func validateNotify(n *NotifyConfig) []error {
	if n.Enabled && n.Endpoint == "" {
		return []error{errors.New("notify.endpoint: required when notify.enabled is true")}
	}

	return nil
}
