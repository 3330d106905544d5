package constants

import "time"

// ToolDetectionTimeout bounds the whole tool detection run.
const ToolDetectionTimeout = 5 * time.Second

// External tools driven by a deployment.
const (
	// ToolGit is the Git version control system.
	ToolGit = "git"

	// ToolBundle is Bundler, the website's dependency installer.
	ToolBundle = "bundle"

	// ToolRake is the website's build tool.
	ToolRake = "rake"

	// ToolOpenSSL decrypts the deployment key.
	ToolOpenSSL = "openssl"
)

// Minimum version requirements for required tools.
const (
	// MinVersionGit is the minimum git version (for "git status --porcelain -uall").
	MinVersionGit = "2.0.0"

	// MinVersionBundle is the minimum Bundler version supporting --jobs and --retry.
	MinVersionBundle = "1.5.0"
)

// Tool version command arguments.
const (
	// VersionFlagStandard is the standard version flag used by most tools.
	VersionFlagStandard = "--version"

	// VersionArgOpenSSL is the version subcommand of openssl.
	VersionArgOpenSSL = "version"
)
