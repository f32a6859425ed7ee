package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateDefaultWritesParsableTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	require.NoError(t, CreateDefault(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "filen-cache-core")

	// The template is all comments; loading it must equal the defaults.
	cfg, err := Load(path, discardLogger())
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
}

func TestCreateDefaultIsAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, CreateDefault(path))
	require.NoError(t, CreateDefault(path), "overwriting an existing file must succeed")

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)

	for _, e := range entries {
		require.False(t, filepath.Ext(e.Name()) == ".tmp", "temp file must not survive: %s", e.Name())
	}
}
