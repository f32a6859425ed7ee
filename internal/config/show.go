package config

import (
	"fmt"
	"io"
)

// RenderEffective writes the resolved configuration as a human-readable
// annotated summary to w. This powers the "config show" command.
func RenderEffective(cfg *Config, storePath string, w io.Writer) error {
	ew := &errWriter{w: w}

	ew.printf("# Effective configuration\n\n")

	ew.printf("[store]\n")
	ew.printf("  path = %q\n\n", storePath)

	ew.printf("[refresh]\n")
	ew.printf("  max_concurrent   = %d\n", cfg.Refresh.MaxConcurrent)
	ew.printf("  busy_retry_delay = %q\n\n", cfg.Refresh.BusyRetryDelay)

	ew.printf("[logging]\n")
	ew.printf("  level  = %q\n", cfg.Logging.Level)
	ew.printf("  format = %q\n\n", cfg.Logging.Format)

	ew.printf("[notify]\n")
	ew.printf("  enabled  = %t\n", cfg.Notify.Enabled)

	if cfg.Notify.Endpoint != "" {
		ew.printf("  endpoint = %q\n", cfg.Notify.Endpoint)
	}

	return ew.err
}

// errWriter wraps an io.Writer and captures the first write error, so
// callers can chain printf calls without checking each one individually.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}

	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
