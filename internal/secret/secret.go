// Package secret decrypts the deployment key with openssl.
//
// The key is written under a restrictive umask so it is never readable by
// other users, not even between openssl creating it and the final chmod.
package secret

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/atilaneves/flycheck/internal/command"
	"github.com/atilaneves/flycheck/internal/config"
	"github.com/atilaneves/flycheck/internal/constants"
	"github.com/atilaneves/flycheck/internal/ctxutil"
	deployerrors "github.com/atilaneves/flycheck/internal/errors"
)

// Decrypter turns the encrypted deployment key into a usable private key.
type Decrypter struct {
	runner command.Runner
	cfg    config.CryptoConfig
	env    config.Env
}

// NewDecrypter creates a Decrypter reading the key and iv from env.
func NewDecrypter(runner command.Runner, cfg config.CryptoConfig, env config.Env) *Decrypter {
	return &Decrypter{runner: runner, cfg: cfg, env: env}
}

// Credentials returns the hex key and iv, or ErrMissingSecret naming the
// first unset variable.
func (d *Decrypter) Credentials() (key, iv string, err error) {
	key = d.env.Get(d.cfg.KeyVar)
	if key == "" {
		return "", "", fmt.Errorf("%w: %s is not set", deployerrors.ErrMissingSecret, d.cfg.KeyVar)
	}
	iv = d.env.Get(d.cfg.IVVar)
	if iv == "" {
		return "", "", fmt.Errorf("%w: %s is not set", deployerrors.ErrMissingSecret, d.cfg.IVVar)
	}
	return key, iv, nil
}

// Decrypt decrypts source into target and restricts target to its owner.
// A partially written target is removed on failure.
func (d *Decrypter) Decrypt(ctx context.Context, source, target string) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}

	key, iv, err := d.Credentials()
	if err != nil {
		return err
	}

	cmd := command.Command{
		Name: constants.ToolOpenSSL,
		Args: []string{
			d.cfg.Cipher,
			"-K", key,
			"-iv", iv,
			"-in", source,
			"-out", target,
			"-d",
		},
		// The key and iv are already on the command line.
		Env:    d.env.Environ(d.cfg.KeyVar, d.cfg.IVVar),
		Secret: []string{key, iv},
	}

	zerolog.Ctx(ctx).Debug().Str("command", cmd.String()).Msg("decrypting deployment key")

	err = withUmask(constants.SecretUmask, func() error {
		if _, runErr := d.runner.Run(ctx, cmd); runErr != nil {
			return runErr
		}
		if _, statErr := os.Stat(target); statErr != nil {
			return fmt.Errorf("openssl produced no key file: %w", statErr)
		}
		return os.Chmod(target, constants.KeyFileMode)
	})
	if err != nil {
		_ = os.Remove(target)
		if ctxutil.Canceled(ctx) != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %w", deployerrors.ErrDecryptFailed, err)
	}
	return nil
}
