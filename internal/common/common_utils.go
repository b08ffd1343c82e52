package common

import (
	"context"
	"fmt"
	"time"
)

func GetResponseTime(init time.Time) string {
	timeDiff := time.Since(init).Milliseconds()
	return fmt.Sprintf("%dms", timeDiff)
}

// WithTimeout runs call under a deadline. A call that runs out of time is
// reported as Unavailable with the given code, so callers may retry it.
func WithTimeout[T any](ctx context.Context, timeout time.Duration, code, op string, call func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := call(ctx)
	if err != nil {
		if _, ok := AsAppError(err); ok {
			return result, err
		}
		if IsTimeout(err) || ctx.Err() != nil {
			return result, Unavailable(code, op+" timed out", err)
		}
		return result, Unavailable(code, op, err)
	}
	return result, nil
}
