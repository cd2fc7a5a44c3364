package gslides

import (
	"context"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// RetryPolicy bounds the backoff loop.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetry gives up after five attempts.
var DefaultRetry = RetryPolicy{MaxAttempts: 5, BaseDelay: 500 * time.Millisecond, MaxDelay: 10 * time.Second}

func (p RetryPolicy) withDefaults() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = DefaultRetry.MaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultRetry.BaseDelay
	}
	if p.MaxDelay <= 0 {
		p.MaxDelay = DefaultRetry.MaxDelay
	}
	return p
}

// retrier runs an operation through the limiter with exponential backoff.
type retrier struct {
	policy  RetryPolicy
	limiter *RateLimiter
	log     *zap.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

func newRetrier(policy RetryPolicy, limiter *RateLimiter, log *zap.Logger) *retrier {
	if log == nil {
		log = zap.NewNop()
	}
	return &retrier{policy: policy.withDefaults(), limiter: limiter, log: log, sleep: sleepContext}
}

// do calls fn until it succeeds, fails with a non-retryable error or runs
// out of attempts. The last error is returned wrapped by WrapError.
func (r *retrier) do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	backoff := r.policy.BaseDelay
	for attempt := 1; ; attempt++ {
		if err := r.limiter.Wait(ctx); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || !IsRetryable(err) || attempt >= r.policy.MaxAttempts {
			return WrapError(err)
		}

		wait := retryAfter(err, backoff, r.policy.MaxDelay)
		if IsRateLimited(err) {
			r.limiter.Pause(wait)
		}
		wait = jitter(wait)

		r.log.Warn("slides request retrying",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", r.policy.MaxAttempts),
			zap.Duration("sleep", wait),
			zap.Error(err),
		)

		if err := r.sleep(ctx, wait); err != nil {
			return err
		}
		backoff = min(backoff*2, r.policy.MaxDelay)
	}
}

// jitter spreads d by +/-20%.
func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	delta := float64(d) * 0.2
	return time.Duration(float64(d) - delta + rand.Float64()*2*delta)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
