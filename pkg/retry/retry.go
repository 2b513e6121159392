// Package retry executes fallible actions under a set of composable
// retry strategies.
package retry

// Action is a function to be performed in a retriable manner.
type Action func() error

// Retry executes the provided action, potentially multiple times, until
// either the action succeeds or one of the provided strategies indicates
// no further attempts should be made.
//
// Strategies are consulted in order, so strategies that induce delays
// should be placed last. The returned count is the number of attempts
// that were made.
func Retry(action Action, strategies ...Strategy) (uint, error) {
	for attempt := uint(1); ; attempt++ {
		err := action()
		if err == nil {
			return attempt, nil
		}

		for _, s := range strategies {
			if !s(attempt, err) {
				return attempt, err
			}
		}
	}
}

// Loop executes the provided action indefinitely, resetting the attempt
// counter whenever the action succeeds. It returns only when a strategy
// halts retries after a failure.
func Loop(action Action, strategies ...Strategy) error {
	for attempt := uint(1); ; attempt++ {
		err := action()
		if err == nil {
			attempt = 0
			continue
		}

		for _, s := range strategies {
			if !s(attempt, err) {
				return err
			}
		}
	}
}
