// Package git drives the git CLI for the website clone.
//
// All commands go through a command.Runner so the deployment pipeline can be
// tested without touching a real repository or network.
package git

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/atilaneves/flycheck/internal/command"
	"github.com/atilaneves/flycheck/internal/ctxutil"
	deployerrors "github.com/atilaneves/flycheck/internal/errors"
)

// gitBinary is the git executable looked up in PATH.
const gitBinary = "git"

// Repo is a checked-out repository on disk.
type Repo struct {
	dir    string
	runner command.Runner
	env    []string
}

// Open wraps an existing checkout at dir. It does not verify the directory.
// environ is the base environment for git; nil means the process environment.
func Open(dir string, runner command.Runner, environ []string) *Repo {
	return &Repo{dir: dir, runner: runner, env: gitEnv(environ)}
}

// Clone clones url into dest and returns the checkout. environ is passed to
// every git command run on the checkout, as for Open.
func Clone(ctx context.Context, runner command.Runner, environ []string, url, dest string) (*Repo, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return nil, err
	}
	if url == "" || dest == "" {
		return nil, fmt.Errorf("clone url and destination are required: %w", deployerrors.ErrEmptyValue)
	}

	repo := Open(dest, runner, environ)
	if _, err := run(ctx, runner, "", repo.env, "clone", url, dest); err != nil {
		return nil, fmt.Errorf("failed to clone %s: %w", url, err)
	}

	zerolog.Ctx(ctx).Debug().Str("url", url).Str("dir", dest).Msg("repository cloned")
	return repo, nil
}

// Dir returns the checkout directory.
func (r *Repo) Dir() string {
	return r.dir
}

// Config sets a repository-local configuration value.
func (r *Repo) Config(ctx context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("config key cannot be empty: %w", deployerrors.ErrEmptyValue)
	}
	if _, err := r.git(ctx, "config", key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Status returns the working tree changes, untracked files included.
func (r *Repo) Status(ctx context.Context) (*Status, error) {
	res, err := r.git(ctx, "status", "--porcelain", "-uall")
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}
	return ParseStatus(res.Stdout), nil
}

// AddAll stages every change in the working tree, deletions included.
func (r *Repo) AddAll(ctx context.Context) error {
	if _, err := r.git(ctx, "add", "--all", "."); err != nil {
		return fmt.Errorf("failed to add files: %w", err)
	}
	return nil
}

// Commit records the staged changes with message.
func (r *Repo) Commit(ctx context.Context, message string) error {
	if message == "" {
		return fmt.Errorf("commit message cannot be empty: %w", deployerrors.ErrEmptyValue)
	}
	if _, err := r.git(ctx, "commit", "-m", message); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Head returns the full hash of HEAD.
func (r *Repo) Head(ctx context.Context) (string, error) {
	res, err := r.git(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	return strings.TrimSpace(res.Stdout), nil
}

// AddRemote registers a remote.
func (r *Repo) AddRemote(ctx context.Context, name, url string) error {
	if name == "" || url == "" {
		return fmt.Errorf("remote name and url are required: %w", deployerrors.ErrEmptyValue)
	}
	if _, err := r.git(ctx, "remote", "add", name, url); err != nil {
		return fmt.Errorf("failed to add remote %s: %w", name, err)
	}
	return nil
}

// Push pushes refspec to remote. Failures are classified and wrap one of
// ErrPushAuthFailed, ErrPushNetworkFailed or ErrPushRejected when recognized.
// Push never retries.
func (r *Repo) Push(ctx context.Context, remote, refspec string) error {
	res, err := r.git(ctx, "push", remote, refspec)
	if err == nil {
		return nil
	}
	if ctxutil.Canceled(ctx) != nil {
		return err
	}

	errType := ClassifyError(err.Error() + "\n" + res.CombinedOutput())
	zerolog.Ctx(ctx).Error().
		Str("remote", remote).
		Str("refspec", refspec).
		Str("error_type", errType.String()).
		Msg("push failed")

	if sentinel := pushSentinel(errType); sentinel != nil {
		return fmt.Errorf("failed to push to %s: %w: %w", remote, sentinel, err)
	}
	return fmt.Errorf("failed to push to %s: %w", remote, err)
}

func (r *Repo) git(ctx context.Context, args ...string) (*command.Result, error) {
	return run(ctx, r.runner, r.dir, r.env, args...)
}

// run executes git. Failures wrap ErrGitOperation; cancellation is returned as is.
// The returned Result is never nil.
func run(ctx context.Context, runner command.Runner, dir string, env []string, args ...string) (*command.Result, error) {
	if err := ctxutil.Canceled(ctx); err != nil {
		return &command.Result{ExitCode: -1}, err
	}

	res, err := runner.Run(ctx, command.Command{
		Name: gitBinary,
		Args: args,
		Dir:  dir,
		Env:  env,
	})
	if res == nil {
		res = &command.Result{ExitCode: -1}
	}
	if err != nil {
		if ctxutil.Canceled(ctx) != nil {
			return res, ctx.Err()
		}
		return res, fmt.Errorf("%w: %w", deployerrors.ErrGitOperation, err)
	}
	return res, nil
}

// gitEnv copies environ, or the process environment when it is nil, and
// disables credential prompts so an HTTPS clone that needs authentication
// fails instead of hanging the job.
func gitEnv(environ []string) []string {
	if environ == nil {
		environ = os.Environ()
	}
	return append(slices.Clone(environ), "GIT_TERMINAL_PROMPT=0")
}
