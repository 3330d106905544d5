// Package config provides configuration management for flycheck-deploy with layered precedence.
//
// Configuration sources are loaded in the following order (highest precedence first):
//  1. CLI flags (passed via LoadWithOverrides)
//  2. Environment variables (FLYCHECK_DEPLOY_* prefix)
//  3. Config file (--config, or .flycheck-deploy.yaml in the source tree)
//  4. Built-in defaults
//
// The Travis variables a deployment is gated on are not configuration: they
// are read once into an Env snapshot (see env.go) and never written back.
//
// IMPORTANT: This package may import internal/constants and internal/errors,
// but MUST NOT import other internal packages.
package config

import "time"

// Config is the root configuration structure for flycheck-deploy.
type Config struct {
	// Gate holds the values the Travis environment must match for a deployment to proceed.
	Gate GateConfig `yaml:"gate" json:"gate" mapstructure:"gate"`

	// Repo describes the source tree and the website repository.
	Repo RepoConfig `yaml:"repo" json:"repo" mapstructure:"repo"`

	// Git contains commit identity and push settings for the website clone.
	Git GitConfig `yaml:"git" json:"git" mapstructure:"git"`

	// Build contains the dependency install and build task settings.
	Build BuildConfig `yaml:"build" json:"build" mapstructure:"build"`

	// Crypto describes where the encrypted deployment key and its parameters live.
	Crypto CryptoConfig `yaml:"crypto" json:"crypto" mapstructure:"crypto"`

	// SSH contains the SSH client configuration written before pushing.
	SSH SSHConfig `yaml:"ssh" json:"ssh" mapstructure:"ssh"`

	// Workspace controls where the temporary working directory is created.
	Workspace WorkspaceConfig `yaml:"workspace" json:"workspace" mapstructure:"workspace"`

	// DryRun stops the pipeline after the commit; nothing is pushed.
	DryRun bool `yaml:"dry_run" json:"dry_run" mapstructure:"dry_run"`
}

// GateConfig holds the expected values of the Travis gate variables.
type GateConfig struct {
	// RepoSlug is the repository whose builds may deploy.
	// Default: "flycheck/flycheck"
	RepoSlug string `yaml:"repo_slug" json:"repo_slug" mapstructure:"repo_slug" validate:"required,contains=/"`

	// PullRequest is the expected TRAVIS_PULL_REQUEST value; anything else is a pull request build.
	// Default: "false"
	PullRequest string `yaml:"pull_request" json:"pull_request" mapstructure:"pull_request" validate:"required"`

	// SecureEnvVars is the expected TRAVIS_SECURE_ENV_VARS value.
	// Default: "true"
	SecureEnvVars string `yaml:"secure_env_vars" json:"secure_env_vars" mapstructure:"secure_env_vars" validate:"required"`

	// Branch is the only branch that deploys.
	// Default: "master"
	Branch string `yaml:"branch" json:"branch" mapstructure:"branch" validate:"required"`
}

// RepoConfig describes the repositories taking part in a deployment.
type RepoConfig struct {
	// SourceDir is the flycheck source tree the manual is built from.
	// Empty means the current working directory.
	SourceDir string `yaml:"source_dir" json:"source_dir" mapstructure:"source_dir"`

	// Target is the owner/name of the website repository.
	// Default: "flycheck/flycheck.github.io"
	Target string `yaml:"target" json:"target" mapstructure:"target" validate:"required,contains=/"`

	// Host is the git host for cloning over HTTPS and pushing over SSH.
	// Default: "github.com"
	Host string `yaml:"host" json:"host" mapstructure:"host" validate:"required,hostname"`

	// CloneDir is the directory name of the clone inside the working directory.
	// Default: "flycheck.github.io"
	CloneDir string `yaml:"clone_dir" json:"clone_dir" mapstructure:"clone_dir" validate:"required"`
}

// GitConfig contains settings for committing to and pushing the website clone.
type GitConfig struct {
	// UserName is the committer name configured on the clone.
	UserName string `yaml:"user_name" json:"user_name" mapstructure:"user_name" validate:"required"`

	// UserEmail is the committer email configured on the clone.
	UserEmail string `yaml:"user_email" json:"user_email" mapstructure:"user_email" validate:"required,email"`

	// Remote is the name of the push remote registered on the clone.
	// Default: "deploy"
	Remote string `yaml:"remote" json:"remote" mapstructure:"remote" validate:"required"`

	// Refspec is pushed to Remote.
	// Default: "master:master"
	Refspec string `yaml:"refspec" json:"refspec" mapstructure:"refspec" validate:"required"`
}

// BuildConfig contains the settings passed to bundle and rake.
type BuildConfig struct {
	// Jobs is the parallelism of bundle install.
	Jobs int `yaml:"jobs" json:"jobs" mapstructure:"jobs" validate:"min=1"`

	// Retry is the number of retries bundle install makes on network failures.
	Retry int `yaml:"retry" json:"retry" mapstructure:"retry" validate:"min=0"`

	// BundlePath is the gem install path, relative to the source tree.
	BundlePath string `yaml:"bundle_path" json:"bundle_path" mapstructure:"bundle_path" validate:"required"`

	// ManualVersion is the version argument of the manual build task.
	ManualVersion string `yaml:"manual_version" json:"manual_version" mapstructure:"manual_version" validate:"required"`

	// StripEnv lists environment variable names and NAME_* prefixes removed
	// from the build tools' environment.
	StripEnv []string `yaml:"strip_env" json:"strip_env" mapstructure:"strip_env"`
}

// CryptoConfig describes the encrypted deployment key.
type CryptoConfig struct {
	// EncryptedKey is the path of the encrypted key, relative to the source tree.
	EncryptedKey string `yaml:"encrypted_key" json:"encrypted_key" mapstructure:"encrypted_key" validate:"required"`

	// KeyVar names the environment variable holding the hex key.
	KeyVar string `yaml:"key_var" json:"key_var" mapstructure:"key_var" validate:"required"`

	// IVVar names the environment variable holding the hex iv.
	IVVar string `yaml:"iv_var" json:"iv_var" mapstructure:"iv_var" validate:"required"`

	// Cipher is the openssl cipher name.
	Cipher string `yaml:"cipher" json:"cipher" mapstructure:"cipher" validate:"required"`
}

// SSHConfig describes the SSH client configuration entry.
type SSHConfig struct {
	// ConfigPath is the SSH client config file. Empty means ~/.ssh/config.
	ConfigPath string `yaml:"config_path" json:"config_path" mapstructure:"config_path"`

	// User is the login for SSH pushes.
	User string `yaml:"user" json:"user" mapstructure:"user" validate:"required"`

	// LockTimeout bounds waiting for the lock on ConfigPath.
	LockTimeout time.Duration `yaml:"lock_timeout" json:"lock_timeout" mapstructure:"lock_timeout" validate:"gt=0"`
}

// WorkspaceConfig controls the temporary working directory.
type WorkspaceConfig struct {
	// BaseDir is the parent of the working directory. Empty means os.TempDir().
	BaseDir string `yaml:"base_dir" json:"base_dir" mapstructure:"base_dir"`
}
