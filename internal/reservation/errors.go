package reservation

import "errors"

// Failure kinds reported by Reserve.  Returned errors wrap exactly one of
// these, so callers match them with errors.Is or the helpers below.
var (
	// ErrNotFound: the show does not exist.
	ErrNotFound = errors.New("show not found")
	// ErrInvalidArgument: the request is malformed (non-positive count,
	// unparseable or mismatched show time, missing requester).
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInsufficientCapacity: fewer seats are free than requested.  No state
	// was changed.
	ErrInsufficientCapacity = errors.New("insufficient seats available")
	// ErrStoreUnavailable: the store could not complete the operation.  No
	// ticket was issued and the seat count is unchanged.
	ErrStoreUnavailable = errors.New("store unavailable")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
func IsInvalidArgument(err error) bool { return errors.Is(err, ErrInvalidArgument) }
func IsInsufficientCapacity(err error) bool { return errors.Is(err, ErrInsufficientCapacity) }
func IsStoreUnavailable(err error) bool { return errors.Is(err, ErrStoreUnavailable) }
