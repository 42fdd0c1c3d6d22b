// Package poll implements bounded waits: a condition is checked at a constant
// interval until it holds, the attempt budget runs out or the timeout passes.
package poll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

var ErrTimeout = errors.New("condition not met in time")

var errNotYet = errors.New("condition not met yet")

type Options struct {
	// Interval between two checks of the condition.
	Interval time.Duration
	// Timeout bounds the whole wait, including the time spent in the condition.
	Timeout time.Duration
	// MaxAttempts bounds the amount of times the condition is checked,
	// 0 means the attempts are only bounded by Timeout.
	MaxAttempts uint64
}

// Condition reports whether the awaited state has been reached, an error is
// treated as "not yet" and is kept to explain a timeout.
type Condition func(ctx context.Context) (bool, error)

// Until blocks until cond returns true. It returns ErrTimeout (wrapping the
// last condition error, if any) when the budget is exhausted, or the parent
// context's error if that was canceled first.
func Until(ctx context.Context, opts Options, cond Condition) error {
	if opts.Interval <= 0 {
		opts.Interval = 100 * time.Millisecond
	}

	waitCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	var b backoff.BackOff = backoff.NewConstantBackOff(opts.Interval)
	if opts.MaxAttempts > 0 {
		b = backoff.WithMaxRetries(b, opts.MaxAttempts-1)
	}

	var lastErr error
	err := backoff.Retry(func() error {
		ok, err := cond(waitCtx)
		if err != nil {
			lastErr = err
			return err
		}
		if !ok {
			return errNotYet
		}
		return nil
	}, backoff.WithContext(b, waitCtx))
	if err == nil {
		return nil
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if lastErr != nil {
		return fmt.Errorf("%w: %w", ErrTimeout, lastErr)
	}
	return ErrTimeout
}
