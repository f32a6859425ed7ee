package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	require.NoError(t, Validate(DefaultConfig()))
}

func TestValidateAccumulatesErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Refresh.MaxConcurrent = 0
	cfg.Logging.Level = "loud"
	cfg.Notify.Enabled = true
	cfg.Notify.Endpoint = ""

	err := Validate(cfg)
	require.Error(t, err)
	require.ErrorContains(t, err, "max_concurrent")
	require.ErrorContains(t, err, "logging.level")
	require.ErrorContains(t, err, "notify.endpoint")
}

func TestValidateRejectsBadBusyRetryDelay(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Refresh.BusyRetryDelay = "not-a-duration"
	require.ErrorContains(t, Validate(cfg), "busy_retry_delay")
}
