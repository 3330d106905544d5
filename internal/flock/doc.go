// Package flock provides cross-platform advisory file locks.
//
// The SSH client configuration is rewritten while holding an exclusive lock
// on it, so two deployments sharing a home directory never interleave writes:
//
//	f, _ := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
//	if err := flock.Acquire(ctx, f, time.Second); err != nil {
//	    // someone else holds the file
//	}
//	defer flock.Release(f)
package flock
