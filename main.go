package main

import (
	"errors"
	"os"

	"github.com/filen/filen-cache-core/internal/storeerr"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		exitOnError(err)
	}
}

// exitCodeFor maps a storeerr sentinel to a process exit code, the same
// shape as the teacher's errVerifyMismatch -> os.Exit(1) mapping but
// generalized to several sentinels: ErrNotFound, ErrConflict,
// ErrPathUnresolvable, ErrRefreshFailed and ErrCancelled get their own
// codes; every other error exits with 1.
func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, storeerr.ErrNotFound):
		return 2
	case errors.Is(err, storeerr.ErrConflict):
		return 3
	case errors.Is(err, storeerr.ErrPathUnresolvable):
		return 4
	case errors.Is(err, storeerr.ErrRefreshFailed):
		return 5
	case errors.Is(err, storeerr.ErrCancelled):
		return 130
	default:
		return 1
	}
}
