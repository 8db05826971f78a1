package layout

import "github.com/pkg/errors"

// Common errors.
//
// Every error returned by this package wraps exactly one of these sentinels,
// so callers can classify failures with errors.Is.
var (
	ErrInvalidLayout     = errors.New("invalid layout")
	ErrIndexOutOfRange   = errors.New("index out of range")
	ErrValueOutOfRange   = errors.New("value out of range")
	ErrBroadcastMismatch = errors.New("shapes not compatible for broadcasting")
)

// normAxis wraps a possibly negative axis into [0, n).
func normAxis(axis, n int) (int, error) {
	a := axis
	if a < 0 {
		a += n
	}
	if a < 0 || a >= n {
		return 0, errors.Wrapf(ErrIndexOutOfRange, "axis %d out of range for %dD layout", axis, n)
	}
	return a, nil
}
