package config

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/atilaneves/flycheck/internal/constants"
	"github.com/atilaneves/flycheck/internal/errors"
)

// LoadOptions selects the configuration file.
type LoadOptions struct {
	// ConfigFile is an explicit config file. It must exist when set.
	ConfigFile string

	// SourceDir is searched for .flycheck-deploy.yaml when ConfigFile is empty.
	SourceDir string
}

// newViperInstance creates a viper instance with defaults and the FLYCHECK_DEPLOY_ env prefix.
func newViperInstance() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// isConfigNotFoundError returns true if the error is a viper config file not found error.
func isConfigNotFoundError(err error) bool {
	var configNotFoundErr viper.ConfigFileNotFoundError
	return stderrors.As(err, &configNotFoundErr)
}

// Load reads configuration from defaults, the config file and FLYCHECK_DEPLOY_* variables.
// A missing project config file is not an error; a missing explicit one is.
func Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	v := newViperInstance()

	path, err := resolveConfigFile(opts)
	if err != nil {
		return nil, err
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) {
			return nil, errors.Wrapf(err, "failed to read config file %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viperDecoderOption()); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	zerolog.Ctx(ctx).Debug().
		Str("component", "config").
		Str("config_file", path).
		Str("target", cfg.Repo.Target).
		Bool("dry_run", cfg.DryRun).
		Msg("configuration loaded")

	if err := Validate(&cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return &cfg, nil
}

// LoadWithOverrides loads configuration and applies CLI flag overrides on top.
// Only non-zero override values are applied. DryRun can only be switched on.
func LoadWithOverrides(ctx context.Context, opts LoadOptions, overrides *Config) (*Config, error) {
	cfg, err := Load(ctx, opts)
	if err != nil {
		return nil, err
	}
	if overrides != nil {
		applyOverrides(cfg, overrides)
	}
	if err := Validate(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration after overrides")
	}
	return cfg, nil
}

// resolveConfigFile returns the config file to read, or "" for none.
func resolveConfigFile(opts LoadOptions) (string, error) {
	if opts.ConfigFile != "" {
		if !fileExists(opts.ConfigFile) {
			return "", errors.Wrapf(errors.ErrConfigNotFound, "%s", opts.ConfigFile)
		}
		return opts.ConfigFile, nil
	}

	dir := opts.SourceDir
	if dir == "" {
		dir = "."
	}
	candidate := filepath.Join(dir, constants.ProjectConfigName)
	if !fileExists(candidate) {
		return "", nil
	}
	return candidate, nil
}

// fileExists returns true if a regular file exists at path.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func applyOverrides(cfg, overrides *Config) {
	if overrides.Repo.SourceDir != "" {
		cfg.Repo.SourceDir = overrides.Repo.SourceDir
	}
	if overrides.Repo.Target != "" {
		cfg.Repo.Target = overrides.Repo.Target
	}
	if overrides.Workspace.BaseDir != "" {
		cfg.Workspace.BaseDir = overrides.Workspace.BaseDir
	}
	if overrides.SSH.ConfigPath != "" {
		cfg.SSH.ConfigPath = overrides.SSH.ConfigPath
	}
	if overrides.DryRun {
		cfg.DryRun = true
	}
}

// viperDecoderOption decodes durations from strings and lists from
// comma-separated environment values.
func viperDecoderOption() viper.DecoderConfigOption {
	return viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	)
}
