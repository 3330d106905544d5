package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/atilaneves/flycheck/internal/constants"
)

// defaultLockTimeout is how long to wait for another process holding ~/.ssh/config.
const defaultLockTimeout = 5 * time.Second

// defaultStripEnv are removed from the build tools' environment so the
// source tree's own Bundler setup does not leak into the website build.
//
//nolint:gochecknoglobals // read-only default list
var defaultStripEnv = []string{"BUNDLE_*", "BUNDLER_*", "RUBYOPT", "RUBYLIB"}

// DefaultConfig returns a Config that deploys flycheck's manual to
// flycheck.github.io exactly as the Travis job always has.
func DefaultConfig() *Config {
	return &Config{
		Gate: GateConfig{
			RepoSlug:      constants.SourceRepoSlug,
			PullRequest:   "false",
			SecureEnvVars: "true",
			Branch:        constants.DeployBranch,
		},
		Repo: RepoConfig{
			Target:   constants.TargetRepoPath,
			Host:     constants.GitHost,
			CloneDir: constants.CloneDirName,
		},
		Git: GitConfig{
			UserName:  constants.CommitterName,
			UserEmail: constants.CommitterEmail,
			Remote:    constants.DeployRemote,
			Refspec:   constants.DeployRefspec,
		},
		Build: BuildConfig{
			Jobs:          constants.BundleJobs,
			Retry:         constants.BundleRetry,
			BundlePath:    constants.BundlePath,
			ManualVersion: constants.ManualVersion,
			StripEnv:      append([]string(nil), defaultStripEnv...),
		},
		Crypto: CryptoConfig{
			EncryptedKey: constants.EncryptedKeyPath,
			KeyVar:       constants.KeyEnvVar,
			IVVar:        constants.IVEnvVar,
			Cipher:       constants.Cipher,
		},
		SSH: SSHConfig{
			User:        constants.SSHUser,
			LockTimeout: defaultLockTimeout,
		},
	}
}

// setDefaults mirrors DefaultConfig on a viper instance.
// Keys must match the mapstructure tag names exactly.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("gate.repo_slug", d.Gate.RepoSlug)
	v.SetDefault("gate.pull_request", d.Gate.PullRequest)
	v.SetDefault("gate.secure_env_vars", d.Gate.SecureEnvVars)
	v.SetDefault("gate.branch", d.Gate.Branch)

	v.SetDefault("repo.source_dir", d.Repo.SourceDir)
	v.SetDefault("repo.target", d.Repo.Target)
	v.SetDefault("repo.host", d.Repo.Host)
	v.SetDefault("repo.clone_dir", d.Repo.CloneDir)

	v.SetDefault("git.user_name", d.Git.UserName)
	v.SetDefault("git.user_email", d.Git.UserEmail)
	v.SetDefault("git.remote", d.Git.Remote)
	v.SetDefault("git.refspec", d.Git.Refspec)

	v.SetDefault("build.jobs", d.Build.Jobs)
	v.SetDefault("build.retry", d.Build.Retry)
	v.SetDefault("build.bundle_path", d.Build.BundlePath)
	v.SetDefault("build.manual_version", d.Build.ManualVersion)
	v.SetDefault("build.strip_env", d.Build.StripEnv)

	v.SetDefault("crypto.encrypted_key", d.Crypto.EncryptedKey)
	v.SetDefault("crypto.key_var", d.Crypto.KeyVar)
	v.SetDefault("crypto.iv_var", d.Crypto.IVVar)
	v.SetDefault("crypto.cipher", d.Crypto.Cipher)

	v.SetDefault("ssh.config_path", d.SSH.ConfigPath)
	v.SetDefault("ssh.user", d.SSH.User)
	v.SetDefault("ssh.lock_timeout", d.SSH.LockTimeout.String())

	v.SetDefault("workspace.base_dir", d.Workspace.BaseDir)
	v.SetDefault("dry_run", d.DryRun)
}
