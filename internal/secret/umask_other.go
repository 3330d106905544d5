//go:build !unix

package secret

// withUmask runs fn directly; there is no umask outside unix.
func withUmask(_ int, fn func() error) error {
	return fn()
}
