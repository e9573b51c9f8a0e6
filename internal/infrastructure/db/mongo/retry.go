package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	retry "github.com/avast/retry-go/v4"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/modd3/ai-prompt-builder/internal/core/domain"
)

const (
	storeAttempts   = 3
	storeRetryDelay = 100 * time.Millisecond
)

// isTransient reports whether err is a connectivity-class failure worth
// retrying. Everything else (not-found, duplicate key, decode errors) must
// surface immediately.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false
	}
	return mongo.IsTimeout(err) || mongo.IsNetworkError(err) || errors.Is(err, context.DeadlineExceeded)
}

// withRetry runs op with bounded exponential backoff on transient store
// failures. Once attempts are exhausted the failure surfaces as
// domain.ErrStoreUnavailable; non-transient errors pass through untouched.
func withRetry(ctx context.Context, op func() error) error {
	err := retry.Do(op,
		retry.Context(ctx),
		retry.Attempts(storeAttempts),
		retry.Delay(storeRetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isTransient),
	)
	if err != nil && isTransient(err) {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return err
}
