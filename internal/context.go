package internal

import (
	"context"
	"time"
)

// DefaultStoreTimeout bounds every store call so access checks fail closed
// instead of hanging on an unavailable database.
const DefaultStoreTimeout = 5 * time.Second

// WithTimeout returns a context with timeout, defaulting to DefaultStoreTimeout
// if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = DefaultStoreTimeout
	}
	return context.WithTimeout(ctx, duration)
}
