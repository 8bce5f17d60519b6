package usecases

import (
	"context"
	"time"
)

// attempt runs fn under an optional timeout and reports success.
// Failures are handed to onErr and turned into an absent result.
func attempt[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error), onErr func(error)) (T, bool) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	v, err := fn(ctx)
	if err != nil {
		if onErr != nil {
			onErr(err)
		}
		var zero T
		return zero, false
	}
	return v, true
}
