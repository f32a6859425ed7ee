package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigPathEndsInFileName(t *testing.T) {
	path := DefaultConfigPath()
	if path == "" {
		t.Skip("no home directory available in this environment")
	}

	require.True(t, strings.HasSuffix(path, configFileName))
	require.Contains(t, path, appName)
}

func TestDefaultStoreFileEndsInDBName(t *testing.T) {
	path := defaultStoreFile()
	require.True(t, strings.HasSuffix(path, storeFileName))
}
