package sentinel

import "errors"

// Facts that stores report about persisted documents. Services translate these
// into domain-errors codes; stores never decide user-facing meaning.
//
//   - ErrNotFound: no document matches the lookup
//   - ErrConflict: a unique index rejected the write
//   - ErrStaleState: a conditional write found the document in another state
//   - ErrUnavailable: the backing engine could not be reached
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrStaleState  = errors.New("stale state")
	ErrUnavailable = errors.New("unavailable")
)
