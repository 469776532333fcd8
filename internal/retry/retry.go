// Package retry provides a small bounded-retry helper for the external calls
// the suite makes: discovery attempts against the LLM and HTTP calls to the
// target under test.
package retry

import (
	"context"
	"errors"
	"time"
)

// Config configures retry behavior.
type Config struct {
	// MaxAttempts is the maximum number of attempts, including the first.
	MaxAttempts int
	// Delay is the pause between attempts.
	Delay time.Duration
}

// Linear returns a fixed-interval retry config.
func Linear(maxAttempts int, delay time.Duration) Config {
	return Config{MaxAttempts: maxAttempts, Delay: delay}
}

// Result reports the outcome of a retried operation.
type Result struct {
	// Attempts is the number of attempts made.
	Attempts int
	// Err is the last error, nil on success.
	Err error
}

// Do executes op until it succeeds, the attempt budget is spent, the error is
// permanent, or the context ends.
func Do(ctx context.Context, config Config, op func() error) Result {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1
	}
	result := Result{}
	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		result.Attempts = attempt
		if ctx.Err() != nil {
			result.Err = ctx.Err()
			return result
		}
		err := op()
		if err == nil {
			result.Err = nil
			return result
		}
		result.Err = err
		if IsPermanent(err) || attempt >= config.MaxAttempts {
			return result
		}
		if config.Delay > 0 {
			select {
			case <-ctx.Done():
				result.Err = ctx.Err()
				return result
			case <-time.After(config.Delay):
			}
		}
	}
	return result
}

// PermanentError marks an error that must not be retried, such as a missing
// credential that will fail identically on every attempt.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }

func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err so Do stops retrying it.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err was marked permanent.
func IsPermanent(err error) bool {
	var permanent *PermanentError
	return errors.As(err, &permanent)
}
