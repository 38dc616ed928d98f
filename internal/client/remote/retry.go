package remote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/plantfolk/plantkeeper/internal/common"
	"github.com/plantfolk/plantkeeper/internal/logging"
	"github.com/sethvargo/go-retry"
)

// CallOptions bound one remote call. ThrowOnTimeout=false turns a call that
// is still failing after every retry into a no-op success, used for
// best-effort cache warm-ups that must never surface an error.
type CallOptions struct {
	Timeout        time.Duration
	MaxRetries     uint64
	ThrowOnTimeout bool
}

// DefaultCallOptions are used when a caller passes the zero value.
var DefaultCallOptions = CallOptions{
	Timeout:        10 * time.Second,
	MaxRetries:     2,
	ThrowOnTimeout: true,
}

func (o CallOptions) normalized() CallOptions {
	if o.Timeout <= 0 {
		o.Timeout = DefaultCallOptions.Timeout
	}
	return o
}

// withTimeoutAndRetry runs op with a per-attempt timeout, retrying timed-out
// or transport-failed attempts up to MaxRetries times with exponential
// backoff. Application-level errors (auth, not-found, bad request) are
// terminal and never retried.
func withTimeoutAndRetry(ctx context.Context, log logging.Logger, opts CallOptions, name string, op func(ctx context.Context) error) error {
	opts = opts.normalized()

	b := retry.WithMaxRetries(opts.MaxRetries, retry.NewExponential(200*time.Millisecond))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
		defer cancel()

		err := op(attemptCtx)
		if err == nil {
			return nil
		}
		if isRetryable(err) {
			log.Warn(ctx, "remote call failed, will retry", "call", name, "error", err)
			return retry.RetryableError(err)
		}
		return err
	})
	if err == nil {
		return nil
	}

	if isRetryable(err) {
		if !opts.ThrowOnTimeout {
			// Best-effort call: degrade to a no-op success.
			log.Warn(ctx, "remote call abandoned after retries", "call", name, "error", err)
			return nil
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%s: %w", name, common.ErrRemoteTimeout)
		}
		return fmt.Errorf("%s: %w: %v", name, common.ErrRemoteUnavailable, err)
	}
	return err
}

func isRetryable(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, common.ErrRemoteTimeout) ||
		errors.Is(err, common.ErrRemoteUnavailable)
}
