package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketetl/config"

	"github.com/cenkalti/backoff/v4"
)

// ErrNotAvailable reports that the upstream has no data for the requested
// date or symbol. Callers treat it as a skip, not a failure.
var ErrNotAvailable = errors.New("fetch: data not available")

// TransientError marks a failure worth retrying (network error, timeout,
// rate limit, 5xx). Anything else bypasses the retry loop.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// MarkTransient wraps err so the retry policy will re-attempt the operation.
func MarkTransient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient reports whether err is marked retryable.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// Policy bounds the exponential backoff applied between attempts:
// base * 2^(attempt-1), clamped to MaxWait, at most MaxAttempts attempts.
type Policy struct {
	MaxAttempts int
	BaseWait    time.Duration
	MaxWait     time.Duration
}

// NewPolicy builds a Policy from the retry section of the config.
func NewPolicy(cfg config.RetryConfig) Policy {
	return Policy{
		MaxAttempts: cfg.MaxAttempts,
		BaseWait:    cfg.BaseWait,
		MaxWait:     cfg.MaxWait,
	}
}

// Retry runs op, re-attempting transient failures per the policy. The first
// attempt is unconditional. Non-transient errors propagate immediately; on
// exhaustion the last transient error is returned, still marked transient so
// callers can downgrade it to a batch-level warning.
func Retry(ctx context.Context, p Policy, op func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.BaseWait
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxInterval = p.MaxWait
	bo.MaxElapsedTime = 0

	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	wrapped := func() error {
		err := op()
		if err == nil {
			return nil
		}
		if IsTransient(err) {
			return err
		}
		return backoff.Permanent(err)
	}

	return backoff.Retry(wrapped,
		backoff.WithContext(backoff.WithMaxRetries(bo, uint64(attempts-1)), ctx))
}
