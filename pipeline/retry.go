package pipeline

import (
	"context"
	"math"
	"time"

	"ewintr.nl/ytsum/fetcher"
)

// RetryPolicy bounds how often a transient external failure is
// retried before it is reported to the caller.
type RetryPolicy struct {
	MaxRetries  int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

var DefaultRetryPolicy = RetryPolicy{
	MaxRetries:  2,
	InitialWait: 500 * time.Millisecond,
	MaxWait:     10 * time.Second,
	Multiplier:  2.0,
}

// retryTransient runs fn up to MaxRetries+1 times with exponential
// backoff. Only transient failures are retried, terminal outcomes and
// credential errors return immediately.
func retryTransient[T any](ctx context.Context, rp RetryPolicy, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt <= rp.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !fetcher.IsTransient(err) {
			return zero, err
		}

		if attempt < rp.MaxRetries {
			wait := time.Duration(float64(rp.InitialWait) * math.Pow(rp.Multiplier, float64(attempt)))
			if wait > rp.MaxWait {
				wait = rp.MaxWait
			}
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return zero, ctx.Err()
			}
		}
	}

	return zero, lastErr
}
