package docwatch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/nglaszik/docwatch/internal/config"
	"github.com/nglaszik/docwatch/internal/domain"
)

// RetryPolicy bounds retries of transient storage failures.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy is used when no policy is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, InitialInterval: 50 * time.Millisecond, MaxInterval: time.Second}
}

// RetryPolicyFromConfig converts the retry section of the configuration.
func RetryPolicyFromConfig(cfg config.RetryConfig) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     cfg.MaxAttempts,
		InitialInterval: cfg.InitialInterval,
		MaxInterval:     cfg.MaxInterval,
	}
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}
	b.MaxElapsedTime = 0

	retries := 0
	if p.MaxAttempts > 1 {
		retries = p.MaxAttempts - 1
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}

// withRetry runs fn until it succeeds, fails with a non-transient error, or the
// policy's attempts are used up. Only *domain.TransientStorageError is retried.
func withRetry(ctx context.Context, policy RetryPolicy, logger *slog.Logger, op string, fn func() error) error {
	attempt := 0
	operation := func() error {
		attempt++
		err := fn()
		if err == nil {
			return nil
		}
		if !domain.IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		logger.Warn("transient storage failure, retrying",
			"op", op,
			"attempt", attempt,
			"wait", wait,
			"error", err,
		)
	}

	err := backoff.RetryNotify(operation, policy.backOff(ctx), notify)

	var invariant *domain.InvariantViolationError
	if errors.As(err, &invariant) {
		logger.Error("invariant violation, operation aborted",
			"op", op,
			"error", invariant.Message,
			"detail", invariant.Detail,
		)
	}
	return err
}
