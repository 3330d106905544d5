// Package errors provides centralized error handling for flycheck-deploy.
//
// This package defines sentinel errors used for programmatic error categorization
// throughout the application. All error types can be checked using errors.Is().
//
// IMPORTANT: This package MUST NOT import any other internal packages.
// Only standard library imports are allowed.
package errors

import "errors"

// Sentinel errors for error categorization.
// All errors use lowercase descriptions per Go conventions.
var (
	// ErrCommandFailed indicates that an external command exited non-zero
	// or could not be started.
	ErrCommandFailed = errors.New("command failed")

	// ErrCommandNotConfigured indicates that a fake command was not scripted in tests.
	ErrCommandNotConfigured = errors.New("command not configured")

	// ErrGitOperation indicates that a git command (clone, config, commit, push, etc.)
	// failed during execution.
	ErrGitOperation = errors.New("git operation failed")

	// ErrNotGitRepo indicates the path is not a git repository.
	ErrNotGitRepo = errors.New("not a git repository")

	// ErrBuildFailed indicates that the dependency install or the manual
	// build task exited non-zero.
	ErrBuildFailed = errors.New("manual build failed")

	// ErrMissingSecret indicates that the key or iv for the deployment key
	// was not present in the environment.
	ErrMissingSecret = errors.New("deployment secret missing")

	// ErrMissingRevision indicates that the source commit the manual was built
	// from is not known, so no commit message can be built.
	ErrMissingRevision = errors.New("source revision missing")

	// ErrDecryptFailed indicates that the deployment key could not be decrypted.
	ErrDecryptFailed = errors.New("deployment key decryption failed")

	// ErrSSHConfig indicates that the SSH client configuration could not be written
	// or did not resolve to the expected identity afterwards.
	ErrSSHConfig = errors.New("ssh configuration failed")

	// ErrWorkspace indicates that the temporary working directory could not be
	// created or removed.
	ErrWorkspace = errors.New("workspace operation failed")

	// ErrPushAuthFailed indicates that git push failed due to authentication.
	ErrPushAuthFailed = errors.New("push authentication failed")

	// ErrPushNetworkFailed indicates that git push failed due to network issues.
	ErrPushNetworkFailed = errors.New("push network failed")

	// ErrPushRejected indicates that the remote rejected the push (non-fast-forward).
	ErrPushRejected = errors.New("push rejected by remote")

	// ErrConfigNil indicates that a nil config was passed to validation.
	ErrConfigNil = errors.New("config is nil")

	// ErrConfigInvalid indicates an invalid configuration value.
	ErrConfigInvalid = errors.New("invalid configuration")

	// ErrConfigNotFound indicates that an explicitly requested config file was not found.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrEnvFileInvalid indicates that a dotenv file could not be read or parsed.
	ErrEnvFileInvalid = errors.New("invalid env file")

	// ErrEmptyValue indicates that a required value was empty.
	ErrEmptyValue = errors.New("value cannot be empty")

	// ErrInvalidOutputFormat indicates an invalid output format was specified.
	ErrInvalidOutputFormat = errors.New("invalid output format")

	// ErrMissingRequiredTools indicates that required tools are missing or outdated.
	ErrMissingRequiredTools = errors.New("required tools are missing or outdated")
)

// ExitCode2Error wraps an error to indicate exit code 2 should be used.
type ExitCode2Error struct {
	Err error
}

// NewExitCode2Error wraps an error to indicate exit code 2.
func NewExitCode2Error(err error) *ExitCode2Error {
	return &ExitCode2Error{Err: err}
}

// Error implements the error interface.
func (e *ExitCode2Error) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ExitCode2Error) Unwrap() error {
	return e.Err
}

// IsExitCode2Error checks if an error should result in exit code 2.
func IsExitCode2Error(err error) bool {
	var e *ExitCode2Error
	return errors.As(err, &e)
}
