package resilience

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/voxgate/voxgate/pkg/errorsx"
)

// RetryPolicy defines bounded-attempt retry behavior with exponential
// backoff and uniform jitter. A zero policy is usable; defaults are
// applied in Do.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      float64

	// IsRetryable decides whether a failed attempt may be repeated.
	// Defaults to errorsx.IsRetryable.
	IsRetryable func(error) bool
	// Sleep is injectable for tests. Defaults to time.Sleep.
	Sleep func(time.Duration)
	// Rand is injectable for tests. Defaults to a time-seeded source.
	Rand *rand.Rand
}

// Do runs fn up to MaxAttempts times. Cancellation is checked at the top
// of every attempt and surfaced verbatim. On a non-retryable failure the
// error is returned immediately; exhausting attempts surfaces the last
// error.
func Do[T any](ctx context.Context, policy RetryPolicy, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 3
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = 100 * time.Millisecond
	}
	if policy.MaxDelay <= 0 {
		policy.MaxDelay = 2 * time.Second
	}
	if policy.IsRetryable == nil {
		policy.IsRetryable = errorsx.IsRetryable
	}
	if policy.Sleep == nil {
		policy.Sleep = time.Sleep
	}
	if policy.Rand == nil {
		policy.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		out, err := fn(ctx)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if errorsx.IsCancellation(err) {
			return zero, err
		}
		if !policy.IsRetryable(err) {
			return zero, err
		}
		if attempt == policy.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
			policy.Sleep(Delay(policy, attempt))
		}
	}
	return zero, fmt.Errorf("retry exhausted after %d attempts: %w", policy.MaxAttempts, lastErr)
}

// Delay computes the backoff before the attempt following the given
// 1-based attempt number: min(maxDelay, base*2^(attempt-1) + uniform
// jitter). The cap applies after jitter, so the result never exceeds
// MaxDelay.
func Delay(policy RetryPolicy, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	pow := math.Pow(2, float64(attempt-1))
	d := time.Duration(float64(policy.BaseDelay) * pow)
	if policy.Jitter > 0 && policy.Rand != nil {
		d += time.Duration(float64(d) * policy.Jitter * policy.Rand.Float64())
	}
	if d > policy.MaxDelay {
		d = policy.MaxDelay
	}
	return d
}
