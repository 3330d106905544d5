// Package deploy publishes flycheck's manual to the website repository.
//
// A run clones the website, rebuilds the manual from the current source
// tree, and, only if that changed anything, decrypts the deployment key,
// points SSH at it, commits and pushes. Builds that are not allowed to
// deploy (forks, pull requests, other branches) skip before doing any work.
package deploy

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/atilaneves/flycheck/internal/build"
	"github.com/atilaneves/flycheck/internal/clock"
	"github.com/atilaneves/flycheck/internal/command"
	"github.com/atilaneves/flycheck/internal/config"
	"github.com/atilaneves/flycheck/internal/constants"
	"github.com/atilaneves/flycheck/internal/ctxutil"
	deployerrors "github.com/atilaneves/flycheck/internal/errors"
	"github.com/atilaneves/flycheck/internal/git"
	"github.com/atilaneves/flycheck/internal/secret"
	"github.com/atilaneves/flycheck/internal/sshconfig"
	"github.com/atilaneves/flycheck/internal/tui"
	"github.com/atilaneves/flycheck/internal/workspace"
)

// Progress messages, printed in pipeline order.
const (
	StepClone   = "Clone website repository"
	StepBuild   = "Build manual"
	StepAdd     = "Add changes if any"
	StepDecrypt = "Decrypt deployment key"
	StepSSH     = "Setup Github SSH authentication"
	StepCommit  = "Commit changes to manual"
	StepPush    = "Push changes"
)

// Orchestrator runs the deployment pipeline.
type Orchestrator struct {
	cfg      *config.Config
	env      config.Env
	runner   command.Runner
	out      tui.Output
	clock    clock.Clock
	newRunID func() string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithClock sets the clock used for timestamps.
func WithClock(c clock.Clock) Option {
	return func(o *Orchestrator) { o.clock = c }
}

// WithRunID sets the run ID generator.
func WithRunID(fn func() string) Option {
	return func(o *Orchestrator) { o.newRunID = fn }
}

// New creates an Orchestrator. env is the snapshot every Travis variable and
// secret is read from; the process environment is not consulted again.
func New(cfg *config.Config, env config.Env, runner command.Runner, out tui.Output, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:      cfg,
		env:      env,
		runner:   runner,
		out:      out,
		clock:    clock.RealClock{},
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// run carries the state of one Deploy call.
type run struct {
	*Orchestrator

	result    *Result
	sourceDir string
	workDir   *workspace.Dir
	repo      *git.Repo
	keyPath   string
}

// Deploy runs the pipeline. A skip is a successful run: it returns a Result
// with OutcomeSkipped and a nil error. The working directory is removed on
// every path out of Deploy.
func (o *Orchestrator) Deploy(ctx context.Context) (res *Result, err error) {
	if o.cfg == nil {
		return nil, deployerrors.ErrConfigNil
	}

	r := &run{
		Orchestrator: o,
		result: &Result{
			RunID:     o.newRunID(),
			DryRun:    o.cfg.DryRun,
			StartedAt: o.clock.Now(),
		},
	}
	defer func() { r.result.FinishedAt = o.clock.Now() }()

	logger := zerolog.Ctx(ctx).With().Str("run_id", r.result.RunID).Logger()
	ctx = logger.WithContext(ctx)

	logger.Info().
		Bool("travis_ci", o.env.IsTravisCI()).
		Bool("dry_run", o.cfg.DryRun).
		Str("branch", o.env.Get(config.EnvBranch)).
		Str("commit", o.env.Get(config.EnvCommit)).
		Msg("deployment started")

	if reason, ok := CheckGate(o.cfg.Gate, o.env); !ok {
		return r.skip(ctx, reason), nil
	}

	if r.sourceDir, err = resolveSourceDir(o.cfg.Repo.SourceDir); err != nil {
		return nil, err
	}

	if r.workDir, err = workspace.Create(ctx, o.cfg.Workspace.BaseDir); err != nil {
		return nil, err
	}
	defer func() {
		removeErr := r.workDir.Remove(ctx)
		if err == nil && removeErr != nil {
			res, err = nil, removeErr
		}
	}()

	return r.pipeline(ctx)
}

func (r *run) pipeline(ctx context.Context) (*Result, error) {
	if err := r.step(ctx, StepClone, r.cloneAndConfigure); err != nil {
		return nil, err
	}
	if err := r.step(ctx, StepBuild, r.buildManual); err != nil {
		return nil, err
	}

	var changed bool
	err := r.step(ctx, StepAdd, func(ctx context.Context) error {
		var addErr error
		changed, addErr = r.addChanges(ctx)
		return addErr
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return r.skip(ctx, ReasonNoChanges), nil
	}

	for _, s := range []struct {
		name string
		fn   func(context.Context) error
	}{
		{StepDecrypt, r.decryptKey},
		{StepSSH, r.configureSSH},
		{StepCommit, r.commit},
	} {
		if err := r.step(ctx, s.name, s.fn); err != nil {
			return nil, err
		}
	}

	if r.cfg.DryRun {
		r.out.Info(fmt.Sprintf("Dry run: not pushing %s to %s (%s)", r.cfg.Git.Refspec, r.cfg.Git.Remote, r.pushURL()))
	} else if err := r.step(ctx, StepPush, r.push); err != nil {
		return nil, err
	}

	r.result.Outcome = OutcomeDeployed
	zerolog.Ctx(ctx).Info().
		Str("commit", r.result.Commit).
		Int("changes", r.result.Changes.Count()).
		Bool("dry_run", r.cfg.DryRun).
		Msg("manual deployed")
	r.out.Success(fmt.Sprintf("Manual deployed from %s@%s", r.cfg.Gate.RepoSlug, r.result.Revision))
	return r.result, nil
}

// step prints name, runs fn and records its duration.
func (r *run) step(ctx context.Context, name string, fn func(context.Context) error) error {
	if err := ctxutil.Canceled(ctx); err != nil {
		return err
	}

	r.out.Step(name)
	log := zerolog.Ctx(ctx)
	log.Info().Str("step", name).Msg("step started")

	start := r.clock.Now()
	err := fn(ctx)
	elapsed := r.clock.Now().Sub(start)
	r.result.Steps = append(r.result.Steps, StepTiming{Name: name, Duration: elapsed})

	if err != nil {
		log.Error().Err(err).Str("step", name).Dur("duration_ms", elapsed).Msg("step failed")
		return err
	}
	log.Debug().Str("step", name).Dur("duration_ms", elapsed).Msg("step completed")
	return nil
}

func (r *run) skip(ctx context.Context, reason string) *Result {
	msg := SkipMessage(reason)
	zerolog.Ctx(ctx).Info().Str("reason", reason).Msg("deployment skipped")
	r.out.Skip(msg)

	r.result.Outcome = OutcomeSkipped
	r.result.SkipReason = reason
	return r.result
}

func (r *run) cloneAndConfigure(ctx context.Context) error {
	url := fmt.Sprintf("https://%s/%s.git", r.cfg.Repo.Host, r.cfg.Repo.Target)
	repo, err := git.Clone(ctx, r.runner, r.env.Environ(), url, r.workDir.Join(r.cfg.Repo.CloneDir))
	if err != nil {
		return err
	}
	if err := repo.Config(ctx, "user.name", r.cfg.Git.UserName); err != nil {
		return err
	}
	if err := repo.Config(ctx, "user.email", r.cfg.Git.UserEmail); err != nil {
		return err
	}
	r.repo = repo
	return nil
}

func (r *run) buildManual(ctx context.Context) error {
	return build.New(r.runner, r.cfg.Build, r.env).Manual(ctx, r.repo.Dir(), r.sourceDir)
}

// addChanges queries the status once and stages everything when it is dirty.
func (r *run) addChanges(ctx context.Context) (bool, error) {
	status, err := r.repo.Status(ctx)
	if err != nil {
		return false, err
	}
	zerolog.Ctx(ctx).Info().
		Int("added", len(status.Added)).
		Int("deleted", len(status.Deleted)).
		Int("changed", len(status.Changed)).
		Msg("change detection")

	if !status.HasChanges() {
		return false, nil
	}
	r.result.Changes = status
	return true, r.repo.AddAll(ctx)
}

func (r *run) decryptKey(ctx context.Context) error {
	r.keyPath = r.workDir.Join(constants.KeyFileName)
	source := r.cfg.Crypto.EncryptedKey
	if !filepath.IsAbs(source) {
		source = filepath.Join(r.sourceDir, source)
	}
	return secret.NewDecrypter(r.runner, r.cfg.Crypto, r.env).Decrypt(ctx, source, r.keyPath)
}

func (r *run) configureSSH(ctx context.Context) error {
	path := r.cfg.SSH.ConfigPath
	if path == "" {
		var err error
		if path, err = sshconfig.DefaultPath(); err != nil {
			return err
		}
	}
	entry := sshconfig.Entry{
		Host:         r.cfg.Repo.Host,
		User:         r.cfg.SSH.User,
		IdentityFile: r.keyPath,
		Compression:  true,
	}
	return sshconfig.Write(ctx, path, entry, r.cfg.SSH.LockTimeout)
}

func (r *run) commit(ctx context.Context) error {
	full := r.env.Get(config.EnvCommit)
	if full == "" {
		return fmt.Errorf("%w: %s is not set", deployerrors.ErrMissingRevision, config.EnvCommit)
	}
	r.result.Revision = ShortRevision(full)
	r.result.CommitMessage = fmt.Sprintf(constants.CommitMessageFormat, r.cfg.Gate.RepoSlug, r.result.Revision)

	if err := r.repo.Commit(ctx, r.result.CommitMessage); err != nil {
		return err
	}
	head, err := r.repo.Head(ctx)
	if err != nil {
		return err
	}
	r.result.Commit = head
	return nil
}

func (r *run) push(ctx context.Context) error {
	if err := r.repo.AddRemote(ctx, r.cfg.Git.Remote, r.pushURL()); err != nil {
		return err
	}
	return r.repo.Push(ctx, r.cfg.Git.Remote, r.cfg.Git.Refspec)
}

// pushURL is the scp-style SSH remote, resolved through ~/.ssh/config.
func (r *run) pushURL() string {
	return fmt.Sprintf("%s:%s.git", r.cfg.Repo.Host, r.cfg.Repo.Target)
}

// resolveSourceDir returns dir, or the working directory when empty, as an
// absolute path to an existing directory.
func resolveSourceDir(dir string) (string, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("%w: resolve working directory: %w", deployerrors.ErrConfigInvalid, err)
		}
		dir = wd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("%w: source directory %s: %w", deployerrors.ErrConfigInvalid, dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if stderrors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: source directory %s does not exist", deployerrors.ErrConfigInvalid, abs)
		}
		return "", fmt.Errorf("%w: source directory %s: %w", deployerrors.ErrConfigInvalid, abs, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: source directory %s is not a directory", deployerrors.ErrConfigInvalid, abs)
	}
	return abs, nil
}
