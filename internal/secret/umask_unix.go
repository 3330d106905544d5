//go:build unix

package secret

import (
	"sync"

	"golang.org/x/sys/unix"
)

// umaskMu serializes umask changes; the mask is process-wide.
//
//nolint:gochecknoglobals // guards process state
var umaskMu sync.Mutex

// withUmask runs fn with the process umask set to mask and restores the
// previous mask afterwards, even if fn panics.
func withUmask(mask int, fn func() error) error {
	umaskMu.Lock()
	defer umaskMu.Unlock()

	old := unix.Umask(mask)
	defer unix.Umask(old)
	return fn()
}
