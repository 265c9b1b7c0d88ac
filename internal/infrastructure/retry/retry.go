// Package retry provides the shared exponential backoff wrapper used for
// every fallible I/O operation in a sync run.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	syncdomain "github.com/catalogsync/backend/internal/domain/sync"
)

// Policy holds the backoff parameters. The zero value is not usable; call
// NewPolicy or DefaultPolicy.
type Policy struct {
	initialDelay time.Duration
	maxRetries   uint64
	logger       *zap.Logger
}

// NewPolicy creates a retry policy. initialDelay doubles on every retry;
// maxRetries is the number of retries after the first attempt.
func NewPolicy(initialDelay time.Duration, maxRetries int, logger *zap.Logger) *Policy {
	if initialDelay <= 0 {
		initialDelay = 500 * time.Millisecond
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Policy{
		initialDelay: initialDelay,
		maxRetries:   uint64(maxRetries),
		logger:       logger,
	}
}

// DefaultPolicy returns the standard policy: 500ms initial delay, 3 retries
func DefaultPolicy(logger *zap.Logger) *Policy {
	return NewPolicy(500*time.Millisecond, 3, logger)
}

// Do runs op, retrying transient failures with exponential backoff. Parse
// errors and validation gaps are deterministic and surface immediately.
// Only the final failure is returned; intermediate ones are logged.
func (p *Policy) Do(ctx context.Context, name string, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.initialDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0

	attempt := 0
	wrapped := func() error {
		attempt++
		err := op()
		if err == nil {
			return nil
		}
		if !syncdomain.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		p.logger.Debug("Retryable operation failed",
			zap.String("operation", name),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		return err
	}

	err := backoff.Retry(wrapped, backoff.WithContext(backoff.WithMaxRetries(b, p.maxRetries), ctx))
	if err != nil {
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			return permanent.Err
		}
	}
	return err
}

// DoOnce runs op with at most one retry, used for repository writes where a
// conflict may resolve on the second attempt but should not be hammered.
func (p *Policy) DoOnce(ctx context.Context, name string, op func() error) error {
	single := &Policy{initialDelay: p.initialDelay, maxRetries: 1, logger: p.logger}
	return single.Do(ctx, name, op)
}
