// Package retry runs fallible operations under a bounded attempt count with
// exponential backoff between attempts, on top of cenkalti/backoff.
package retry

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// Sleep replaces the backoff timer. Tests use it to record waits.
	Sleep SleepFunc
}

// Default is 3 attempts waiting 1s then 2s.
func Default() Policy {
	return Policy{MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: 8 * time.Second}
}

// Once never retries.
func Once() Policy {
	return Policy{MaxAttempts: 1}
}

// Delay returns the wait after the given failed attempt (1-based):
// BaseDelay, 2*BaseDelay, 4*BaseDelay ... capped at MaxDelay.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 || p.BaseDelay <= 0 {
		return 0
	}
	b := p.exponential()
	var d time.Duration
	for i := 0; i < attempt; i++ {
		d = b.NextBackOff()
	}
	return d
}

func (p Policy) exponential() *backoff.ExponentialBackOff {
	maxDelay := p.MaxDelay
	if maxDelay <= 0 {
		maxDelay = time.Duration(math.MaxInt64)
	}
	b := &backoff.ExponentialBackOff{
		InitialInterval: p.BaseDelay,
		Multiplier:      2,
		MaxInterval:     maxDelay,
	}
	b.Reset()
	return b
}

func (p Policy) backOff() backoff.BackOff {
	if p.Sleep != nil || p.BaseDelay <= 0 {
		return &backoff.ZeroBackOff{}
	}
	return p.exponential()
}

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var pe *backoff.PermanentError
	return errors.As(err, &pe)
}

func unwrapPermanent(err error) error {
	var pe *backoff.PermanentError
	if errors.As(err, &pe) {
		return pe.Err
	}
	return err
}

// Do calls op until it succeeds, returns a permanent error, the attempts are
// exhausted or ctx is done. It returns the result, the number of attempts
// made and the last error with any Permanent marker removed. When ctx ends
// during a wait the last operation error is returned, not ctx.Err().
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context, attempt int) (T, error)) (T, int, error) {
	var zero T
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var (
		attempts int
		lastErr  error
	)
	v, err := backoff.Retry(ctx, func() (T, error) {
		if attempts > 0 && p.Sleep != nil {
			if err := p.Sleep(ctx, p.Delay(attempts)); err != nil {
				return zero, backoff.Permanent(lastErr)
			}
		}
		if err := ctx.Err(); err != nil {
			if lastErr == nil {
				lastErr = err
			}
			return zero, backoff.Permanent(lastErr)
		}
		attempts++
		v, err := op(ctx, attempts)
		if err != nil {
			lastErr = err
		}
		return v, err
	},
		backoff.WithBackOff(p.backOff()),
		backoff.WithMaxTries(uint(maxAttempts)),
		backoff.WithMaxElapsedTime(0),
	)
	if err == nil {
		return v, attempts, nil
	}
	if lastErr != nil && ctx.Err() != nil {
		err = lastErr
	}
	return zero, attempts, unwrapPermanent(err)
}
