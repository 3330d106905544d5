package deploy

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atilaneves/flycheck/internal/clock"
	"github.com/atilaneves/flycheck/internal/command"
	"github.com/atilaneves/flycheck/internal/config"
	deployerrors "github.com/atilaneves/flycheck/internal/errors"
	"github.com/atilaneves/flycheck/internal/testutil"
)

const (
	testCommit = "abcdef1234567890abcdef1234567890abcdef12"
	testHead   = "0123456789abcdef0123456789abcdef01234567"
)

type fixture struct {
	cfg     *config.Config
	vars    map[string]string
	runner  *testutil.FakeRunner
	out     *testutil.RecordingOutput
	base    string
	sshPath string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Repo.SourceDir = t.TempDir()
	cfg.Workspace.BaseDir = t.TempDir()
	cfg.SSH.ConfigPath = filepath.Join(t.TempDir(), ".ssh", "config")

	f := &fixture{
		cfg: cfg,
		vars: map[string]string{
			config.EnvTravis:        "true",
			config.EnvRepoSlug:      "flycheck/flycheck",
			config.EnvPullRequest:   "false",
			config.EnvSecureEnvVars: "true",
			config.EnvBranch:        "master",
			config.EnvCommit:        testCommit,
			cfg.Crypto.KeyVar:       "00ff",
			cfg.Crypto.IVVar:        "ff00",
		},
		runner:  testutil.NewFakeRunner(),
		out:     testutil.NewRecordingOutput(),
		base:    cfg.Workspace.BaseDir,
		sshPath: cfg.SSH.ConfigPath,
	}

	f.runner.On("openssl", testutil.Response{OnRun: writeOut})
	f.runner.On("git rev-parse HEAD", testutil.Response{Stdout: testHead + "\n"})
	return f
}

// writeOut creates the file openssl would write to its -out argument.
func writeOut(cmd command.Command) error {
	for i, arg := range cmd.Args {
		if arg == "-out" && i+1 < len(cmd.Args) {
			return os.WriteFile(cmd.Args[i+1], []byte("-----BEGIN KEY-----\n"), 0o644)
		}
	}
	return nil
}

func (f *fixture) withChanges() *fixture {
	f.runner.On("git status", testutil.Response{Stdout: " M manual/index.html\n?? manual/new-page.html\n"})
	return f
}

func (f *fixture) deploy(t *testing.T) (*Result, error) {
	t.Helper()
	o := New(f.cfg, config.NewEnv(f.vars), f.runner, f.out,
		WithClock(clock.Fixed(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))),
		WithRunID(func() string { return "run-1" }),
	)
	return o.Deploy(context.Background())
}

func (f *fixture) assertWorkspaceRemoved(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(f.base)
	require.NoError(t, err)
	assert.Empty(t, entries, "working directory should be removed")
}

func TestDeploy_GateSkips(t *testing.T) {
	tests := []struct {
		name     string
		variable string
		value    string
		want     string
	}{
		{"fork", config.EnvRepoSlug, "someone/flycheck", "DEPLOYMENT SKIPPED (not our repo)"},
		{"pull request", config.EnvPullRequest, "42", "DEPLOYMENT SKIPPED (pull request)"},
		{"no secure vars", config.EnvSecureEnvVars, "false", "DEPLOYMENT SKIPPED (secure variables missing)"},
		{"other branch", config.EnvBranch, "feature", "DEPLOYMENT SKIPPED (not the master branch)"},
		{"unset slug", config.EnvRepoSlug, "", "DEPLOYMENT SKIPPED (not our repo)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.value == "" {
				delete(f.vars, tt.variable)
			} else {
				f.vars[tt.variable] = tt.value
			}

			res, err := f.deploy(t)
			require.NoError(t, err)
			assert.True(t, res.Skipped())
			assert.Equal(t, "run-1", res.RunID)
			assert.Equal(t, []string{tt.want}, f.out.Messages("skip"))
			assert.Empty(t, f.out.Messages("step"))
			assert.Empty(t, f.runner.Calls())
			f.assertWorkspaceRemoved(t)
			assert.NoFileExists(t, f.sshPath)
		})
	}
}

func TestDeploy_GateChecksInOrder(t *testing.T) {
	f := newFixture(t)
	f.vars[config.EnvPullRequest] = "7"
	f.vars[config.EnvBranch] = "feature"

	res, err := f.deploy(t)
	require.NoError(t, err)
	assert.Equal(t, ReasonPullRequest, res.SkipReason)
}

func TestDeploy_NoChanges(t *testing.T) {
	f := newFixture(t)

	res, err := f.deploy(t)
	require.NoError(t, err)

	assert.Equal(t, OutcomeSkipped, res.Outcome)
	assert.Equal(t, ReasonNoChanges, res.SkipReason)
	assert.Equal(t, []string{StepClone, StepBuild, StepAdd}, f.out.Messages("step"))
	assert.Equal(t, []string{"DEPLOYMENT SKIPPED (no changes)"}, f.out.Messages("skip"))

	assert.False(t, f.runner.Called("git add"))
	assert.False(t, f.runner.Called("openssl"))
	assert.False(t, f.runner.Called("git commit"))
	assert.False(t, f.runner.Called("git push"))
	assert.NoFileExists(t, f.sshPath)
	f.assertWorkspaceRemoved(t)
}

func TestDeploy_PublishesChanges(t *testing.T) {
	f := newFixture(t).withChanges()

	var keyMode os.FileMode
	var keyPath string
	f.runner.On("git commit", testutil.Response{OnRun: func(cmd command.Command) error {
		content, err := os.ReadFile(f.sshPath)
		if err != nil {
			return err
		}
		for _, line := range strings.Split(string(content), "\n") {
			if p, ok := strings.CutPrefix(strings.TrimSpace(line), "IdentityFile "); ok {
				keyPath = strings.Trim(p, `"`)
			}
		}
		info, err := os.Stat(keyPath)
		if err != nil {
			return err
		}
		keyMode = info.Mode().Perm()
		return nil
	}})

	res, err := f.deploy(t)
	require.NoError(t, err)

	assert.Equal(t, OutcomeDeployed, res.Outcome)
	assert.Equal(t, "abcdef12", res.Revision)
	assert.Equal(t, "Update from flycheck/flycheck@abcdef12", res.CommitMessage)
	assert.Equal(t, testHead, res.Commit)
	require.NotNil(t, res.Changes)
	assert.Equal(t, []string{"manual/new-page.html"}, res.Changes.Added)
	assert.Equal(t, []string{"manual/index.html"}, res.Changes.Changed)
	assert.Len(t, res.Steps, 7)

	assert.Equal(t, []string{
		StepClone, StepBuild, StepAdd, StepDecrypt, StepSSH, StepCommit, StepPush,
	}, f.out.Messages("step"))
	assert.Empty(t, f.out.Messages("skip"))
	assert.Len(t, f.out.Messages("success"), 1)

	lines := f.runner.Lines()
	clone := f.runner.Calls()[0]
	require.Equal(t, "git", clone.Name)
	assert.Equal(t, "clone", clone.Args[0])
	assert.Equal(t, "https://github.com/flycheck/flycheck.github.io.git", clone.Args[1])
	assert.True(t, strings.HasSuffix(clone.Args[2], "flycheck.github.io"))

	order := []string{
		"git clone",
		"git config user.name Flycheck Travis CI",
		"git config user.email travis@flycheck.org",
		"bundle install --jobs=3 --retry=3 --path " + filepath.Join(f.cfg.Repo.SourceDir, "vendor", "bundle"),
		"rake build:manual[" + f.cfg.Repo.SourceDir + ",latest] build:documents[" + f.cfg.Repo.SourceDir + "]",
		"git status --porcelain -uall",
		"git add --all .",
		"openssl aes-256-cbc -K 00ff -iv ff00 -in " + filepath.Join(f.cfg.Repo.SourceDir, "admin", "deploy.enc"),
		"git commit -m Update from flycheck/flycheck@abcdef12",
		"git rev-parse HEAD",
		"git remote add deploy github.com:flycheck/flycheck.github.io.git",
		"git push deploy master:master",
	}
	require.Len(t, lines, len(order))
	for i, prefix := range order {
		assert.True(t, strings.HasPrefix(lines[i], prefix), "call %d: got %q, want prefix %q", i, lines[i], prefix)
	}

	for _, c := range f.runner.Calls() {
		if c.Name == "git" && c.Args[0] != "clone" {
			assert.Equal(t, clone.Args[2], c.Dir, "%s runs in the clone", testutil.Line(c))
		}
	}

	assert.Equal(t, os.FileMode(0o700), keyMode)
	assert.True(t, filepath.IsAbs(keyPath))
	assert.Equal(t, "deploy", filepath.Base(keyPath))

	content, err := os.ReadFile(f.sshPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "Host github.com")
	assert.Contains(t, string(content), "User git")
	assert.Contains(t, string(content), "Compression yes")

	f.assertWorkspaceRemoved(t)
	assert.NoFileExists(t, keyPath)
}

func TestDeploy_BuildEnvironmentIsClean(t *testing.T) {
	f := newFixture(t)
	f.vars["BUNDLE_GEMFILE"] = "/src/Gemfile"
	f.vars["RUBYOPT"] = "-rbundler/setup"
	f.vars["PATH"] = "/usr/bin"

	_, err := f.deploy(t)
	require.NoError(t, err)

	found := false
	for _, c := range f.runner.Calls() {
		if c.Name != "bundle" && c.Name != "rake" {
			continue
		}
		found = true
		assert.Contains(t, c.Env, "PATH=/usr/bin")
		for _, kv := range c.Env {
			assert.False(t, strings.HasPrefix(kv, "BUNDLE_"), "leaked %s", kv)
			assert.False(t, strings.HasPrefix(kv, "RUBYOPT="), "leaked %s", kv)
		}
	}
	assert.True(t, found)
}

func TestDeploy_GitUsesEnvironmentSnapshot(t *testing.T) {
	f := newFixture(t).withChanges()
	f.vars["GIT_SSH_COMMAND"] = "ssh -o StrictHostKeyChecking=no"

	_, err := f.deploy(t)
	require.NoError(t, err)

	found := false
	for _, c := range f.runner.Calls() {
		if c.Name != "git" {
			continue
		}
		found = true
		assert.Contains(t, c.Env, "GIT_SSH_COMMAND=ssh -o StrictHostKeyChecking=no", c.String())
		assert.Contains(t, c.Env, "GIT_TERMINAL_PROMPT=0", c.String())
	}
	assert.True(t, found)
}

func TestDeploy_BuildFailure(t *testing.T) {
	f := newFixture(t).withChanges()
	f.runner.Fail("rake", 1, "rake aborted!")

	res, err := f.deploy(t)
	require.Error(t, err)
	assert.Nil(t, res)
	require.ErrorIs(t, err, deployerrors.ErrBuildFailed)

	assert.False(t, f.runner.Called("git status"))
	assert.False(t, f.runner.Called("git commit"))
	assert.False(t, f.runner.Called("git push"))
	assert.Equal(t, []string{StepClone, StepBuild}, f.out.Messages("step"))
	f.assertWorkspaceRemoved(t)
}

func TestDeploy_CloneFailure(t *testing.T) {
	f := newFixture(t)
	f.runner.Fail("git clone", 128, "fatal: unable to access")

	_, err := f.deploy(t)
	require.ErrorIs(t, err, deployerrors.ErrGitOperation)
	assert.False(t, f.runner.Called("bundle"))
	f.assertWorkspaceRemoved(t)
}

func TestDeploy_MissingSecret(t *testing.T) {
	f := newFixture(t).withChanges()
	delete(f.vars, f.cfg.Crypto.IVVar)

	_, err := f.deploy(t)
	require.ErrorIs(t, err, deployerrors.ErrMissingSecret)
	assert.Contains(t, err.Error(), f.cfg.Crypto.IVVar)
	assert.False(t, f.runner.Called("openssl"))
	assert.False(t, f.runner.Called("git commit"))
	assert.NoFileExists(t, f.sshPath)
	f.assertWorkspaceRemoved(t)
}

func TestDeploy_MissingRevision(t *testing.T) {
	f := newFixture(t).withChanges()
	delete(f.vars, config.EnvCommit)

	_, err := f.deploy(t)
	require.ErrorIs(t, err, deployerrors.ErrMissingRevision)
	assert.False(t, f.runner.Called("git commit"))
	assert.False(t, f.runner.Called("git push"))
	f.assertWorkspaceRemoved(t)
}

func TestDeploy_PushRejected(t *testing.T) {
	f := newFixture(t).withChanges()
	f.runner.Fail("git push", 1, "! [rejected] master -> master (non-fast-forward)")

	_, err := f.deploy(t)
	require.ErrorIs(t, err, deployerrors.ErrPushRejected)
	assert.Equal(t, 1, countPrefix(f.runner.Lines(), "git push"), "push is not retried")
	f.assertWorkspaceRemoved(t)
}

func TestDeploy_DryRun(t *testing.T) {
	f := newFixture(t).withChanges()
	f.cfg.DryRun = true

	res, err := f.deploy(t)
	require.NoError(t, err)

	assert.Equal(t, OutcomeDeployed, res.Outcome)
	assert.True(t, res.DryRun)
	assert.True(t, f.runner.Called("git commit"))
	assert.False(t, f.runner.Called("git remote add"))
	assert.False(t, f.runner.Called("git push"))
	assert.NotContains(t, f.out.Messages("step"), StepPush)
	require.Len(t, f.out.Messages("info"), 1)
	assert.Contains(t, f.out.Messages("info")[0], "github.com:flycheck/flycheck.github.io.git")
}

func TestDeploy_CanceledContext(t *testing.T) {
	f := newFixture(t)
	o := New(f.cfg, config.NewEnv(f.vars), f.runner, f.out)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.Deploy(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.runner.Calls())
	f.assertWorkspaceRemoved(t)
}

func TestDeploy_NilConfig(t *testing.T) {
	o := New(nil, config.NewEnv(nil), testutil.NewFakeRunner(), testutil.NewRecordingOutput())
	_, err := o.Deploy(context.Background())
	require.ErrorIs(t, err, deployerrors.ErrConfigNil)
}

func TestDeploy_MissingSourceDir(t *testing.T) {
	f := newFixture(t)
	f.cfg.Repo.SourceDir = filepath.Join(t.TempDir(), "missing")

	_, err := f.deploy(t)
	require.ErrorIs(t, err, deployerrors.ErrConfigInvalid)
	assert.Empty(t, f.runner.Calls())
}

func countPrefix(lines []string, prefix string) int {
	n := 0
	for _, l := range lines {
		if strings.HasPrefix(l, prefix) {
			n++
		}
	}
	return n
}
