package source

import (
	"context"
	"errors"
)

// retryWithContext calls fn up to maxTries times until it succeeds, the
// error is not retryable, or ctx is done. If maxTries <= 0, it defaults to 1.
func retryWithContext[T any](ctx context.Context, maxTries int, fn func(context.Context) (T, error)) (T, error) {
	if maxTries <= 0 {
		maxTries = 1
	}
	var lastErr error
	var zero T
	for i := 0; i < maxTries; i++ {
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, context.Canceled) || !retryable(err) {
			return zero, err
		}
		lastErr = err
	}
	return zero, lastErr
}
