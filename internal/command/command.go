// Package command runs external tools for flycheck-deploy.
//
// Every collaborator (git, bundle, rake, openssl) is invoked through the
// Runner interface so tests can substitute a fake runner and assert on the
// invocation order and arguments without executing real tools.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	deployerrors "github.com/atilaneves/flycheck/internal/errors"
	"github.com/atilaneves/flycheck/internal/logging"
)

// Command describes a single external process invocation.
type Command struct {
	// Name is the executable, looked up in PATH.
	Name string
	// Args are passed verbatim; no shell is involved.
	Args []string
	// Dir is the working directory; empty means the current directory.
	Dir string
	// Env replaces the process environment when non-nil.
	Env []string
	// Secret lists argument values that must never be logged.
	Secret []string
}

// String renders the command line with secret arguments redacted.
func (c Command) String() string {
	parts := append([]string{c.Name}, logging.RedactArgs(c.Args, c.Secret)...)
	return strings.Join(parts, " ")
}

// Result captures the outcome of a finished command.
type Result struct {
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	ExitCode int           `json:"exit_code"`
	Duration time.Duration `json:"duration"`
}

// Runner executes commands.
type Runner interface {
	// Run executes cmd and blocks until it exits. A non-zero exit status is
	// reported as an error wrapping ErrCommandFailed together with the Result.
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// ExecRunner implements Runner using os/exec.
type ExecRunner struct {
	liveOutput io.Writer
}

// ExecRunnerOption configures an ExecRunner.
type ExecRunnerOption func(*ExecRunner)

// WithLiveOutput streams stdout and stderr to w while also capturing them.
func WithLiveOutput(w io.Writer) ExecRunnerOption {
	return func(r *ExecRunner) {
		r.liveOutput = w
	}
}

// NewExecRunner creates an ExecRunner.
func NewExecRunner(opts ...ExecRunnerOption) *ExecRunner {
	r := &ExecRunner{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the command with os/exec.
func (r *ExecRunner) Run(ctx context.Context, c Command) (*Result, error) {
	log := zerolog.Ctx(ctx)

	cmd := exec.CommandContext(ctx, c.Name, c.Args...) //#nosec G204 -- argv is assembled internally, never via a shell
	cmd.Dir = c.Dir
	if c.Env != nil {
		cmd.Env = c.Env
	}

	var stdout, stderr bytes.Buffer
	if r.liveOutput != nil {
		cmd.Stdout = io.MultiWriter(&stdout, r.liveOutput)
		cmd.Stderr = io.MultiWriter(&stderr, r.liveOutput)
	} else {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	}

	log.Debug().
		Str("command", c.String()).
		Str("work_dir", c.Dir).
		Msg("running command")

	start := time.Now()
	err := cmd.Run()
	result := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if err == nil {
		log.Debug().
			Str("command", c.Name).
			Dur("duration_ms", result.Duration).
			Msg("command completed")
		return result, nil
	}

	if ctx.Err() != nil {
		result.ExitCode = -1
		return result, ctx.Err()
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
	} else {
		result.ExitCode = -1
	}

	log.Error().
		Str("command", c.String()).
		Int("exit_code", result.ExitCode).
		Str("stderr", logging.FilterSensitiveValue(strings.TrimSpace(result.Stderr))).
		Msg("command failed")

	return result, failure(c, result, err)
}

// failure builds the error returned for a failed command. stderr is included
// for debugging, filtered for secrets.
func failure(c Command, result *Result, cause error) error {
	detail := strings.TrimSpace(result.Stderr)
	if detail == "" {
		detail = cause.Error()
	}
	detail = logging.RedactValues(logging.FilterSensitiveValue(detail), c.Secret)
	return fmt.Errorf("%s failed (exit %d): %s: %w", c.Name, result.ExitCode, detail, deployerrors.ErrCommandFailed)
}

// CombinedOutput returns stdout followed by stderr, trimmed.
func (r *Result) CombinedOutput() string {
	if r == nil {
		return ""
	}
	return strings.TrimSpace(r.Stdout + r.Stderr)
}

// Ensure ExecRunner implements Runner.
var _ Runner = (*ExecRunner)(nil)
