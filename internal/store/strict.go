package store

import (
	"context"
	"fmt"
	"time"
)

// Delete verification defaults.
const (
	DefaultDeleteAttempts = 3
	DefaultDeleteBackoff  = 200 * time.Millisecond
)

// DeleteResult reports one strict delete run.
type DeleteResult struct {
	Deleted   int64
	Remaining int64
	Attempts  int
}

// DeleteStrict deletes matching chunks and verifies the store really is
// empty for the filter before declaring success. Stale chunks silently
// surviving a re-ingest would poison every later answer, so a nonzero
// post-delete count triggers bounded retries with a fixed backoff and an
// error when chunks still remain.
func DeleteStrict(ctx context.Context, fs FactStore, filter Filter, attempts int, backoff time.Duration) (DeleteResult, error) {
	if attempts <= 0 {
		attempts = DefaultDeleteAttempts
	}
	if backoff <= 0 {
		backoff = DefaultDeleteBackoff
	}

	var res DeleteResult
	for i := 0; i < attempts; i++ {
		res.Attempts = i + 1
		n, err := fs.DeleteChunks(ctx, filter)
		res.Deleted += n
		if err != nil {
			return res, fmt.Errorf("strict delete: %w", err)
		}
		remaining, err := fs.CountChunks(ctx, filter)
		if err != nil {
			return res, fmt.Errorf("strict delete verify: %w", err)
		}
		res.Remaining = remaining
		if remaining == 0 {
			return res, nil
		}
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return res, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	return res, fmt.Errorf("strict delete: %d chunks remain after %d attempts", res.Remaining, res.Attempts)
}
