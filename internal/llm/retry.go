package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
)

// newTimer is swapped in tests.
var newTimer = time.NewTimer

// maxBackoff bounds the doubled delay between attempts.
const maxBackoff = 30 * time.Second

// RetryPolicy controls how temporary provider failures are retried.
type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration
	Timeout    time.Duration
}

// IsTemporary reports whether err is worth another attempt: rate limiting,
// server-side failures, or a per-attempt deadline.
func IsTemporary(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	msg := strings.ToUpper(err.Error())
	for _, marker := range []string{"RESOURCE_EXHAUSTED", "UNAVAILABLE", "DEADLINE_EXCEEDED", "INTERNAL", " 429", " 503"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// withRetry runs op until it succeeds, fails permanently, or the policy is exhausted.
// Each attempt gets its own deadline when the policy has a timeout.
func withRetry(ctx context.Context, policy RetryPolicy, log *zap.Logger, op func(ctx context.Context) error) error {
	delay := policy.Backoff
	var err error

	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		err = runAttempt(ctx, policy.Timeout, op)
		if err == nil {
			return nil
		}
		// The caller's own cancellation is never retried.
		if ctx.Err() != nil {
			return err
		}
		if !IsTemporary(err) || attempt == policy.MaxRetries {
			return err
		}

		log.Warn("temporary llm failure, retrying",
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err))

		if delay > 0 {
			if waitErr := wait(ctx, delay); waitErr != nil {
				return waitErr
			}
		}
		delay *= 2
		if delay > maxBackoff {
			delay = maxBackoff
		}
	}
	return err
}

func runAttempt(ctx context.Context, timeout time.Duration, op func(ctx context.Context) error) error {
	if timeout <= 0 {
		return op(ctx)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return op(attemptCtx)
}

func wait(ctx context.Context, d time.Duration) error {
	timer := newTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
