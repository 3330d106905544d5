// Package constants provides centralized constant values used throughout flycheck-deploy.
// This package is the single source of truth for all shared constants and MUST NOT
// import any other internal packages.
package constants

// Repositories involved in a deployment.
const (
	// SourceRepoSlug is the repository whose CI builds are allowed to deploy.
	SourceRepoSlug = "flycheck/flycheck"

	// TargetRepoPath is the website repository the manual is pushed to.
	TargetRepoPath = "flycheck/flycheck.github.io"

	// CloneDirName is the subdirectory of the working directory the website is cloned into.
	CloneDirName = "flycheck.github.io"

	// GitHost is the host serving both the HTTPS clone and the SSH push.
	GitHost = "github.com"

	// DeployBranch is the only source branch that deploys.
	DeployBranch = "master"
)

// Commit identity and push target on the website clone.
const (
	// CommitterName is the user.name configured on the clone.
	CommitterName = "Flycheck Travis CI"

	// CommitterEmail is the user.email configured on the clone.
	CommitterEmail = "travis@flycheck.org"

	// DeployRemote is the name of the remote registered for pushing.
	DeployRemote = "deploy"

	// DeployRefspec pushes the local default branch to the remote master.
	DeployRefspec = "master:master"

	// ShortRevisionLength is the number of commit hash characters in the commit message.
	ShortRevisionLength = 8

	// CommitMessageFormat is formatted with the source repo slug and short revision.
	CommitMessageFormat = "Update from %s@%s"
)

// Build settings passed to the website's dependency installer and build tool.
const (
	// BundleJobs is the --jobs value for bundle install.
	BundleJobs = 3

	// BundleRetry is the --retry value for bundle install.
	BundleRetry = 3

	// BundlePath is the gem install path, relative to the source tree.
	BundlePath = "vendor/bundle"

	// ManualTask builds the manual; it takes the source dir and a version.
	ManualTask = "build:manual"

	// ManualVersion is the manual version built on deploy.
	ManualVersion = "latest"

	// DocumentsTask builds the standalone documents; it takes the source dir.
	DocumentsTask = "build:documents"
)

// Deployment key decryption.
const (
	// EncryptedKeyPath is the encrypted deployment key, relative to the source tree.
	EncryptedKeyPath = "admin/deploy.enc"

	// KeyFileName is the name of the decrypted key inside the working directory.
	KeyFileName = "deploy"

	// Cipher is the openssl cipher used for the deployment key.
	Cipher = "aes-256-cbc"

	// KeyEnvVar holds the hex key for the deployment key.
	KeyEnvVar = "encrypted_923a5f7c915e_key"

	// IVEnvVar holds the hex iv for the deployment key.
	IVEnvVar = "encrypted_923a5f7c915e_iv"
)

// SSHUser is the login used for SSH pushes to the git host.
const SSHUser = "git"

// SkipPrefix tags every skip message.
const SkipPrefix = "DEPLOYMENT SKIPPED"
