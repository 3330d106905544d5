//go:build unix

package flock

import (
	stderrors "errors"
	"os"

	"golang.org/x/sys/unix"
)

// TryLock attempts a non-blocking exclusive lock on f. It reports false with
// a nil error when another process holds the lock.
func TryLock(f *os.File) (bool, error) {
	err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	switch {
	case err == nil:
		return true, nil
	case stderrors.Is(err, unix.EWOULDBLOCK), stderrors.Is(err, unix.EINTR):
		return false, nil
	default:
		return false, &os.PathError{Op: "flock", Path: f.Name(), Err: err}
	}
}

// Release drops the lock held on f.
func Release(f *os.File) error {
	if err := unix.Flock(int(f.Fd()), unix.LOCK_UN); err != nil {
		return &os.PathError{Op: "funlock", Path: f.Name(), Err: err}
	}
	return nil
}
