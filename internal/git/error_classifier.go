package git

import (
	"strings"

	deployerrors "github.com/atilaneves/flycheck/internal/errors"
)

// ErrorType is the classification of a failed git command.
type ErrorType int

const (
	// ErrorTypeUnknown indicates the error could not be classified.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeAuth indicates the deployment key or host was not accepted.
	ErrorTypeAuth
	// ErrorTypeNetwork indicates a network connectivity error.
	ErrorTypeNetwork
	// ErrorTypeNonFastForward indicates the remote rejected the push.
	ErrorTypeNonFastForward
	// ErrorTypeNotFound indicates the remote repository does not exist.
	ErrorTypeNotFound
)

// String returns the name used in logs.
func (e ErrorType) String() string {
	switch e {
	case ErrorTypeUnknown:
		return "unknown"
	case ErrorTypeAuth:
		return "authentication"
	case ErrorTypeNetwork:
		return "network"
	case ErrorTypeNonFastForward:
		return "non_fast_forward"
	case ErrorTypeNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// PatternMatcher checks if a string contains any of a list of lowercase patterns.
type PatternMatcher struct {
	patterns []string
}

// NewPatternMatcher creates a PatternMatcher. Patterns must be lowercase.
func NewPatternMatcher(patterns ...string) *PatternMatcher {
	return &PatternMatcher{patterns: patterns}
}

// Matches returns true if s contains any pattern, ignoring case.
func (m *PatternMatcher) Matches(s string) bool {
	return m.matchesLower(strings.ToLower(s))
}

func (m *PatternMatcher) matchesLower(lower string) bool {
	for _, pattern := range m.patterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

//nolint:gochecknoglobals // immutable pattern tables
var (
	authPatterns = NewPatternMatcher(
		"permission denied",
		"publickey",
		"host key verification failed",
		"authentication failed",
		"could not read username",
		"invalid username or password",
		"access denied",
		"is not allowed to push",
		"deploy key is read-only",
	)

	networkPatterns = NewPatternMatcher(
		"could not resolve host",
		"could not resolve hostname",
		"connection refused",
		"connection reset",
		"network is unreachable",
		"connection timed out",
		"operation timed out",
		"unable to access",
		"no route to host",
		"failed to connect",
		"the remote end hung up unexpectedly",
	)

	nonFastForwardPatterns = NewPatternMatcher(
		"non-fast-forward",
		"[rejected]",
		"updates were rejected",
		"fetch first",
		"tip of your current branch is behind",
		"rejected because the remote contains work",
	)

	notFoundPatterns = NewPatternMatcher(
		"repository not found",
		"does not appear to be a git repository",
		"does not exist",
	)
)

// ClassifyError determines the error type from git's output.
//
// First match wins, in this order: authentication, non-fast-forward, network,
// not found. An SSH key rejection is followed by "the remote end hung up", so
// authentication has to be checked before network.
func ClassifyError(errStr string) ErrorType {
	lower := strings.ToLower(errStr)
	switch {
	case authPatterns.matchesLower(lower):
		return ErrorTypeAuth
	case nonFastForwardPatterns.matchesLower(lower):
		return ErrorTypeNonFastForward
	case networkPatterns.matchesLower(lower):
		return ErrorTypeNetwork
	case notFoundPatterns.matchesLower(lower):
		return ErrorTypeNotFound
	default:
		return ErrorTypeUnknown
	}
}

// pushSentinel maps a classification to the error a failed push wraps.
func pushSentinel(t ErrorType) error {
	switch t {
	case ErrorTypeAuth:
		return deployerrors.ErrPushAuthFailed
	case ErrorTypeNetwork:
		return deployerrors.ErrPushNetworkFailed
	case ErrorTypeNonFastForward:
		return deployerrors.ErrPushRejected
	case ErrorTypeUnknown, ErrorTypeNotFound:
		return nil
	default:
		return nil
	}
}
