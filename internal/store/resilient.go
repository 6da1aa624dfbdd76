package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrTimeout marks a call whose timer won the race against the store.
var ErrTimeout = errors.New("store: call timed out")

// RetryError is returned once the retry budget is exhausted. It states the
// attempt count and wraps the last underlying failure.
type RetryError struct {
	Attempts int
	Last     error
}

func (e *RetryError) Error() string {
	return fmt.Sprintf("store: all %d attempts failed: %v", e.Attempts, e.Last)
}

func (e *RetryError) Unwrap() error { return e.Last }

// RetryOptions tunes the resilience wrapper applied to store calls.
type RetryOptions struct {
	MaxRetries        int
	Timeout           time.Duration
	RetryDelay        time.Duration
	BackoffMultiplier float64
}

// DefaultRetryOptions matches the production tunables for single queries.
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{
		MaxRetries:        3,
		Timeout:           10 * time.Second,
		RetryDelay:        time.Second,
		BackoffMultiplier: 2,
	}
}

// DefaultBatchRetryOptions uses the longer timeout applied to batch writes.
func DefaultBatchRetryOptions() RetryOptions {
	opts := DefaultRetryOptions()
	opts.Timeout = 15 * time.Second
	return opts
}

func (o RetryOptions) withDefaults() RetryOptions {
	def := DefaultRetryOptions()
	if o.MaxRetries <= 0 {
		o.MaxRetries = def.MaxRetries
	}
	if o.Timeout <= 0 {
		o.Timeout = def.Timeout
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = def.RetryDelay
	}
	if o.BackoffMultiplier <= 0 {
		o.BackoffMultiplier = def.BackoffMultiplier
	}
	return o
}

// Call is one attempt against the store. The context carries the attempt
// deadline; implementations should pass it down to the driver.
type Call[T any] func(ctx context.Context) (T, error)

// WithTimeout races call against a timer. Whichever settles first decides
// the outcome. The loser's eventual settlement lands in a buffered channel
// and is discarded, so a slow call can never panic or block anything after
// the timer has won; its context is cancelled to let the driver abort.
func WithTimeout[T any](ctx context.Context, timeout time.Duration, call Call[T]) (T, error) {
	type outcome struct {
		val T
		err error
	}
	cctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		v, err := call(cctx)
		done <- outcome{val: v, err: err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var zero T
	select {
	case out := <-done:
		return out.val, out.err
	case <-timer.C:
		return zero, fmt.Errorf("%w after %s", ErrTimeout, timeout)
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// WithRetryAndTimeout runs factory-produced calls until one succeeds or the
// retry budget runs out. A fresh call is obtained from factory on every
// attempt; each attempt is bounded by opts.Timeout; a timeout counts as a
// failure like any other. Between attempts the wait grows exponentially
// (RetryDelay, then ×BackoffMultiplier). Results are all-or-nothing: either
// a successful value or a *RetryError wrapping the last cause.
func WithRetryAndTimeout[T any](ctx context.Context, opts RetryOptions, factory func() Call[T]) (T, error) {
	opts = opts.withDefaults()
	var zero T
	var lastErr error
	delay := opts.RetryDelay
	for attempt := 1; attempt <= opts.MaxRetries; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
			delay = time.Duration(float64(delay) * opts.BackoffMultiplier)
		}
		v, err := WithTimeout(ctx, opts.Timeout, factory())
		if err == nil {
			return v, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			// ambient context gone; retrying cannot help
			return zero, err
		}
		lastErr = err
	}
	return zero, &RetryError{Attempts: opts.MaxRetries, Last: lastErr}
}
