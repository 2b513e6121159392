package retry

import (
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/code-oracles/envelope-server/pkg/retry/backoff"
)

// Strategy decides whether an action should be attempted again after a
// failure. Strategies may induce side effects such as sleeping.
type Strategy func(attempts uint, err error) bool

// Limit caps the total number of attempts. maxAttempts should be >= 1,
// since the action is always evaluated once before strategies run.
func Limit(maxAttempts uint) Strategy {
	return func(attempts uint, err error) bool {
		return attempts < maxAttempts
	}
}

// RetriableErrors retries only when the error matches one of the provided
// errors.
func RetriableErrors(retriable ...error) Strategy {
	return func(attempts uint, err error) bool {
		for _, e := range retriable {
			if errors.Is(err, e) {
				return true
			}
		}
		return false
	}
}

// NonRetriableErrors halts retries when the error matches one of the
// provided errors.
func NonRetriableErrors(nonRetriable ...error) Strategy {
	return func(attempts uint, err error) bool {
		for _, e := range nonRetriable {
			if errors.Is(err, e) {
				return false
			}
		}
		return true
	}
}

// Backoff sleeps before the next attempt, with the delay computed by the
// provided backoff strategy and capped at maxBackoff.
func Backoff(strategy backoff.Strategy, maxBackoff time.Duration) Strategy {
	return func(attempts uint, err error) bool {
		delay := time.Duration(math.Min(float64(maxBackoff), float64(strategy(attempts))))
		sleeperImpl.Sleep(delay)
		return true
	}
}

// BackoffWithJitter behaves like Backoff, with the capped delay adjusted
// by +/- jitter (a fraction of the delay).
func BackoffWithJitter(strategy backoff.Strategy, maxBackoff time.Duration, jitter float64) Strategy {
	return func(attempts uint, err error) bool {
		delay := time.Duration(math.Min(float64(maxBackoff), float64(strategy(attempts))))
		withJitter := time.Duration(float64(delay) * (1 + (rand.Float64()*2*jitter - jitter)))
		sleeperImpl.Sleep(withJitter)
		return true
	}
}

type sleeper interface {
	Sleep(time.Duration)
}

type realSleeper struct{}

func (realSleeper) Sleep(d time.Duration) { time.Sleep(d) }

// swapped out in tests
var sleeperImpl sleeper = realSleeper{}
