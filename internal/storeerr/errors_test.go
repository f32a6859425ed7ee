package storeerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapUnwrapsToSentinel(t *testing.T) {
	err := Wrap("resolve", "abc-123", ErrNotFound)
	require.ErrorIs(t, err, ErrNotFound)
	require.NotErrorIs(t, err, ErrConflict)
}

func TestErrorMessageIncludesOpAndUUID(t *testing.T) {
	err := Wrap("upsert_item", "uuid-1", ErrCycle)
	require.Contains(t, err.Error(), "upsert_item")
	require.Contains(t, err.Error(), "uuid-1")
}

func TestErrorMessageOmitsEmptyUUID(t *testing.T) {
	err := Wrap("refresh", "", ErrRefreshFailed)
	require.Contains(t, err.Error(), "refresh")
	require.NotContains(t, err.Error(), "  ")
}

func TestSentinelsAreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotFound, ErrConflict, ErrStale, ErrRefreshFailed,
		ErrDecodeDeferred, ErrPathUnresolvable, ErrCancelled,
		ErrStoreIO, ErrCycle, ErrClosed,
	}

	for i, a := range sentinels {
		for j, b := range sentinels {
			if i == j {
				continue
			}
			require.False(t, errors.Is(a, b), "sentinel %d should not match %d", i, j)
		}
	}
}
