// Package storeerr defines the sentinel error taxonomy shared by every
// layer of the cache core. Callers use errors.Is to classify failures
// without depending on any one layer's concrete error type.
package storeerr

import "errors"

// Sentinel errors for classification. Use errors.Is(err, storeerr.ErrNotFound)
// to check.
var (
	// ErrNotFound indicates the requested item, directory, or root has no
	// row in the store.
	ErrNotFound = errors.New("storeerr: not found")

	// ErrConflict indicates an identity or name collision that the caller
	// must resolve before the operation can proceed.
	ErrConflict = errors.New("storeerr: conflict")

	// ErrStale indicates the caller observed data from a directory pass
	// that has since been superseded and must re-read.
	ErrStale = errors.New("storeerr: stale read")

	// ErrRefreshFailed indicates a directory refresh cycle could not
	// complete against the remote collaborator.
	ErrRefreshFailed = errors.New("storeerr: refresh failed")

	// ErrDecodeDeferred indicates metadata is present only in encrypted
	// form and decoding has not yet completed.
	ErrDecodeDeferred = errors.New("storeerr: metadata decode deferred")

	// ErrPathUnresolvable indicates a full path could not be assembled,
	// typically because an ancestor is missing or orphaned.
	ErrPathUnresolvable = errors.New("storeerr: path unresolvable")

	// ErrCancelled indicates the operation's context was cancelled before
	// completion.
	ErrCancelled = errors.New("storeerr: cancelled")

	// ErrStoreIO indicates an underlying SQLite I/O failure, including
	// exhaustion of the busy retry policy.
	ErrStoreIO = errors.New("storeerr: store i/o")

	// ErrCycle indicates an upsert was rejected because it would have
	// introduced a cycle in the directory ancestry.
	ErrCycle = errors.New("storeerr: cycle rejected")

	// ErrClosed indicates an operation was attempted on a store that has
	// already been closed.
	ErrClosed = errors.New("storeerr: store closed")
)

// Error wraps a sentinel with operation-specific context: the UUID the
// operation concerned and an optional underlying cause.
type Error struct {
	Op   string // operation name, e.g. "upsert_item", "resolve"
	UUID string // subject UUID, if any
	Err  error  // sentinel, for errors.Is()
}

func (e *Error) Error() string {
	if e.UUID != "" {
		return "storeerr: " + e.Op + " " + e.UUID + ": " + e.Err.Error()
	}

	return "storeerr: " + e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap builds an *Error carrying op, uuid and the sentinel cause.
func Wrap(op, uuid string, sentinel error) error {
	return &Error{Op: op, UUID: uuid, Err: sentinel}
}
