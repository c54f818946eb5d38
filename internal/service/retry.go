package service

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy builds a fresh backoff for one retried operation.
type RetryPolicy func() backoff.BackOff

// DefaultRetryPolicy retries for up to ten seconds with exponential spacing.
func DefaultRetryPolicy() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = 10 * time.Second
	return b
}

func retry(ctx context.Context, policy RetryPolicy, op func() error) error {
	if policy == nil {
		policy = DefaultRetryPolicy
	}
	return backoff.Retry(op, backoff.WithContext(policy(), ctx))
}

// detached returns a context that survives cancellation of parent, bounded by
// timeout, for writes that must land even after the caller gave up.
func detached(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(parent), timeout)
}
