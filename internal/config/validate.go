package config

import (
	stderrors "errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/atilaneves/flycheck/internal/errors"
)

// Validate checks the configuration for invalid or inconsistent values.
// Struct tags are checked first, then the rules tags cannot express:
//   - build.bundle_path must be relative to the source tree
//   - crypto.key_var and crypto.iv_var must name different variables
//   - build.strip_env entries must be non-empty and may only end in "*"
//
// Every failure wraps errors.ErrConfigInvalid.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.ErrConfigNil
	}

	if err := validator.New().Struct(cfg); err != nil {
		return describeValidationError(err)
	}

	if filepath.IsAbs(cfg.Build.BundlePath) {
		return fmt.Errorf("%w: build.bundle_path must be relative, got %q", errors.ErrConfigInvalid, cfg.Build.BundlePath)
	}

	if cfg.Crypto.KeyVar == cfg.Crypto.IVVar {
		return fmt.Errorf("%w: crypto.key_var and crypto.iv_var are both %q", errors.ErrConfigInvalid, cfg.Crypto.KeyVar)
	}

	for _, name := range cfg.Build.StripEnv {
		trimmed := strings.TrimSuffix(name, "*")
		if trimmed == "" || strings.Contains(trimmed, "*") {
			return fmt.Errorf("%w: build.strip_env entry %q", errors.ErrConfigInvalid, name)
		}
	}

	return nil
}

// describeValidationError reports the first failed field using its yaml-style path.
func describeValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("%w: %w", errors.ErrConfigInvalid, err)
	}

	fe := fieldErrs[0]
	field := fieldPath(fe.Namespace())
	if fe.Param() != "" {
		return fmt.Errorf("%w: %s failed %s=%s (value %v)", errors.ErrConfigInvalid, field, fe.Tag(), fe.Param(), fe.Value())
	}
	return fmt.Errorf("%w: %s failed %s (value %v)", errors.ErrConfigInvalid, field, fe.Tag(), fe.Value())
}

// fieldPath turns "Config.Git.UserEmail" into "git.user_email".
func fieldPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		parts[i] = snakeCase(p)
	}
	return strings.Join(parts, ".")
}

func snakeCase(s string) string {
	var sb strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		upper := r >= 'A' && r <= 'Z'
		if upper && i > 0 {
			prevLower := runes[i-1] >= 'a' && runes[i-1] <= 'z'
			nextLower := i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z'
			if prevLower || nextLower {
				sb.WriteByte('_')
			}
		}
		if upper {
			r += 'a' - 'A'
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
