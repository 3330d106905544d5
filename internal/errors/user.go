package errors

import "errors"

// ErrorInfo holds user-facing message and suggested action for an error.
type ErrorInfo struct {
	// Message is the user-friendly error description.
	Message string
	// Action is a suggested action to resolve the issue (empty if none).
	Action string
}

// errorEntry pairs a sentinel error with its user-facing info.
type errorEntry struct {
	err  error
	info ErrorInfo
}

// errorInfoEntries maps sentinel errors to their user-facing messages.
// Order matters: the first entry matching via errors.Is wins, so more
// specific sentinels come before the generic ones they usually wrap.
//
//nolint:gochecknoglobals // Pre-built mapping
var errorInfoEntries = []errorEntry{
	{
		err: ErrMissingSecret,
		info: ErrorInfo{
			Message: "The deployment key secrets are not available in the environment.",
			Action:  "Check that the encrypted key and iv variables are defined for this repository in the CI settings.",
		},
	},
	{
		err: ErrMissingRevision,
		info: ErrorInfo{
			Message: "The source commit is unknown, so the website commit cannot reference it.",
			Action:  "Set TRAVIS_COMMIT to the commit the manual was built from.",
		},
	},
	{
		err: ErrDecryptFailed,
		info: ErrorInfo{
			Message: "The deployment key could not be decrypted.",
			Action:  "Re-encrypt the deployment key and update the key/iv secrets.",
		},
	},
	{
		err: ErrSSHConfig,
		info: ErrorInfo{
			Message: "The SSH client configuration could not be written.",
			Action:  "Check that the home directory is writable and ~/.ssh is not locked by another process.",
		},
	},
	{
		err: ErrBuildFailed,
		info: ErrorInfo{
			Message: "Building the manual failed. Check the bundle/rake output above.",
			Action:  "Reproduce locally with 'bundle install' and 'rake build:manual' in the website repository.",
		},
	},
	{
		err: ErrPushAuthFailed,
		info: ErrorInfo{
			Message: "Git push failed due to an authentication error.",
			Action:  "Verify the deployment key is registered as a write deploy key on the website repository.",
		},
	},
	{
		err: ErrPushNetworkFailed,
		info: ErrorInfo{
			Message: "Git push failed due to a network error. The remote may be partially updated.",
			Action:  "Restart the CI job; the next run pushes the same content again.",
		},
	},
	{
		err: ErrPushRejected,
		info: ErrorInfo{
			Message: "The remote rejected the push because it contains newer commits.",
			Action:  "Restart the CI job so the website repository is cloned afresh.",
		},
	},
	{
		err: ErrNotGitRepo,
		info: ErrorInfo{
			Message: "The specified path is not a git repository.",
			Action:  "Ensure the clone step completed and the path is correct.",
		},
	},
	{
		err: ErrGitOperation,
		info: ErrorInfo{
			Message: "Git operation failed.",
			Action:  "Check the git error above; network access to the git host is required.",
		},
	},
	{
		err: ErrWorkspace,
		info: ErrorInfo{
			Message: "The temporary working directory could not be managed.",
			Action:  "Check free space and permissions of the temp directory.",
		},
	},
	{
		err: ErrCommandFailed,
		info: ErrorInfo{
			Message: "An external command failed.",
			Action:  "Run 'flycheck-deploy tools' to check the required tools are installed.",
		},
	},
	{
		err: ErrConfigInvalid,
		info: ErrorInfo{
			Message: "The configuration is invalid.",
			Action:  "Fix the reported value in .flycheck-deploy.yaml or the FLYCHECK_DEPLOY_* environment.",
		},
	},
	{
		err: ErrConfigNotFound,
		info: ErrorInfo{
			Message: "The configuration file was not found.",
			Action:  "Check the path passed to --config.",
		},
	},
	{
		err: ErrEnvFileInvalid,
		info: ErrorInfo{
			Message: "The env file could not be read.",
			Action:  "Check the path passed to --env-file and its KEY=value syntax.",
		},
	},
	{
		err: ErrInvalidOutputFormat,
		info: ErrorInfo{
			Message: "Invalid output format.",
			Action:  "Use --output text or --output json.",
		},
	},
	{
		err: ErrMissingRequiredTools,
		info: ErrorInfo{
			Message: "Required tools are missing or outdated.",
			Action:  "Install the tools listed by 'flycheck-deploy tools'.",
		},
	},
}

// getErrorInfo looks up the ErrorInfo for a given error.
// Returns an ErrorInfo with the original error message if not found.
func getErrorInfo(err error) ErrorInfo {
	for _, entry := range errorInfoEntries {
		if errors.Is(err, entry.err) {
			return entry.info
		}
	}
	return ErrorInfo{Message: err.Error()}
}

// UserMessage returns a user-friendly message for common errors.
// For unrecognized errors, it returns the error's original message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	return getErrorInfo(err).Message
}

// Actionable returns a user-friendly error message along with a suggested
// action. The action is empty for unrecognized errors.
func Actionable(err error) (message, action string) {
	if err == nil {
		return "", ""
	}
	info := getErrorInfo(err)
	return info.Message, info.Action
}
