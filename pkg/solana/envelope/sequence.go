package envelope

import "math"

// NextSequence returns the next value for a monotonic sequence counter,
// failing explicitly at the maximum instead of wrapping. A wrapped
// counter would appear stale to the strict-increase checks, or worse,
// collide with a replayed old update.
func NextSequence(current uint64) (uint64, error) {
	if current == math.MaxUint64 {
		return 0, ErrSequenceOverflow
	}
	return current + 1, nil
}
