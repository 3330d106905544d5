package constants

// Configuration and logging file names.
const (
	// ProjectConfigName is the optional config file looked up in the source tree.
	ProjectConfigName = ".flycheck-deploy.yaml"

	// EnvPrefix is the prefix of environment variables that override configuration.
	EnvPrefix = "FLYCHECK_DEPLOY"

	// WorkDirPattern is the os.MkdirTemp pattern of the working directory.
	WorkDirPattern = "flycheck-deploy-*"

	// SSHDirName is the SSH directory inside the user's home.
	SSHDirName = ".ssh"

	// SSHConfigName is the SSH client configuration file inside SSHDirName.
	SSHConfigName = "config"
)

// Permissions of files and directories created during a deployment.
const (
	// KeyFileMode is applied to the decrypted key right after decryption.
	KeyFileMode = 0o700

	// SecretUmask masks group and other bits while secrets are written.
	SecretUmask = 0o077

	// SSHDirMode is used when ~/.ssh has to be created.
	SSHDirMode = 0o700

	// SSHConfigMode is used for ~/.ssh/config.
	SSHConfigMode = 0o600
)

// Rotating log file settings.
const (
	// LogMaxSizeMB is the size at which the log file is rotated.
	LogMaxSizeMB = 10

	// LogMaxBackups is the number of rotated files kept.
	LogMaxBackups = 3

	// LogMaxAgeDays is how long rotated files are kept.
	LogMaxAgeDays = 14

	// LogCompress enables gzip of rotated files.
	LogCompress = true
)
