package flock

import (
	"context"
	"errors"
	"os"
	"time"
)

// ErrTimeout is returned by Acquire when the lock is still held by someone
// else once the timeout elapses.
var ErrTimeout = errors.New("lock acquisition timeout")

// retryInterval is the delay between non-blocking lock attempts.
const retryInterval = 50 * time.Millisecond

// Acquire takes an exclusive lock on f, retrying while it is contended until
// timeout or until ctx is done. Errors other than contention are returned
// immediately.
func Acquire(ctx context.Context, f *os.File, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	ticker := time.NewTicker(retryInterval)
	defer ticker.Stop()

	for {
		locked, err := TryLock(f)
		if err != nil {
			return err
		}
		if locked {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return ErrTimeout
		case <-ticker.C:
		}
	}
}
