// Package testutil provides testing utilities for flycheck-deploy.
//
// It should only be imported by test files (*_test.go).
package testutil

import "errors"

// Mock errors for simulating failures in tests.
var (
	// ErrMockNetwork simulates a network failure.
	ErrMockNetwork = errors.New("network error")

	// ErrMockDisk simulates a filesystem failure.
	ErrMockDisk = errors.New("disk error")
)
