// Package build installs the website's gems and runs its manual build tasks.
package build

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/atilaneves/flycheck/internal/command"
	"github.com/atilaneves/flycheck/internal/config"
	"github.com/atilaneves/flycheck/internal/constants"
	"github.com/atilaneves/flycheck/internal/ctxutil"
	deployerrors "github.com/atilaneves/flycheck/internal/errors"
)

// Builder runs bundle and rake inside a website checkout.
type Builder struct {
	runner command.Runner
	cfg    config.BuildConfig
	env    config.Env
}

// New creates a Builder. env is the snapshot the clean build environment is derived from.
func New(runner command.Runner, cfg config.BuildConfig, env config.Env) *Builder {
	return &Builder{runner: runner, cfg: cfg, env: env}
}

// Manual builds the manual and documents of sourceDir into siteDir.
// sourceDir must be absolute; the website's Rakefile resolves it from siteDir.
func (b *Builder) Manual(ctx context.Context, siteDir, sourceDir string) error {
	if !filepath.IsAbs(sourceDir) {
		return fmt.Errorf("source directory %q must be absolute: %w", sourceDir, deployerrors.ErrBuildFailed)
	}

	env := b.env.Environ(b.cfg.StripEnv...)
	for _, cmd := range b.Commands(siteDir, sourceDir, env) {
		if err := ctxutil.Canceled(ctx); err != nil {
			return err
		}
		zerolog.Ctx(ctx).Info().Str("command", cmd.String()).Msg("running build step")

		if _, err := b.runner.Run(ctx, cmd); err != nil {
			if ctxutil.Canceled(ctx) != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w: %s: %w", deployerrors.ErrBuildFailed, cmd.Name, err)
		}
	}
	return nil
}

// Commands returns the install and build invocations in execution order.
func (b *Builder) Commands(siteDir, sourceDir string, env []string) []command.Command {
	bundlePath := filepath.Join(sourceDir, filepath.FromSlash(b.cfg.BundlePath))
	return []command.Command{
		{
			Name: constants.ToolBundle,
			Args: []string{
				"install",
				"--jobs=" + strconv.Itoa(b.cfg.Jobs),
				"--retry=" + strconv.Itoa(b.cfg.Retry),
				"--path", bundlePath,
			},
			Dir: siteDir,
			Env: env,
		},
		{
			Name: constants.ToolRake,
			Args: []string{
				fmt.Sprintf("%s[%s,%s]", constants.ManualTask, sourceDir, b.cfg.ManualVersion),
				fmt.Sprintf("%s[%s]", constants.DocumentsTask, sourceDir),
			},
			Dir: siteDir,
			Env: env,
		},
	}
}
