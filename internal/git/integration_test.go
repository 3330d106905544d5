//go:build integration

package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atilaneves/flycheck/internal/command"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

func gitCmd(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=Test", "GIT_AUTHOR_EMAIL=test@example.org",
		"GIT_COMMITTER_NAME=Test", "GIT_COMMITTER_EMAIL=test@example.org")
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %s: %s", strings.Join(args, " "), out)
	return strings.TrimSpace(string(out))
}

// seedRemote creates a bare repository with one commit on master and returns its path.
func seedRemote(t *testing.T, root string) string {
	t.Helper()
	remote := filepath.Join(root, "site.git")
	require.NoError(t, os.MkdirAll(remote, 0o755))
	gitCmd(t, remote, "init", "--bare")
	gitCmd(t, remote, "symbolic-ref", "HEAD", "refs/heads/master")

	seed := filepath.Join(root, "seed")
	require.NoError(t, os.MkdirAll(seed, 0o755))
	gitCmd(t, seed, "init")
	gitCmd(t, seed, "checkout", "-b", "master")
	require.NoError(t, os.WriteFile(filepath.Join(seed, "index.html"), []byte("v1\n"), 0o600))
	gitCmd(t, seed, "add", ".")
	gitCmd(t, seed, "commit", "-m", "initial")
	gitCmd(t, seed, "push", remote, "master")
	return remote
}

func TestIntegration_CloneCommitPush(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	requireGit(t)

	ctx := context.Background()
	root := t.TempDir()
	remote := seedRemote(t, root)
	runner := command.NewExecRunner()

	repo, err := Clone(ctx, runner, nil, remote, filepath.Join(root, "work", "site"))
	require.NoError(t, err)
	require.NoError(t, repo.Config(ctx, "user.name", "Flycheck Travis CI"))
	require.NoError(t, repo.Config(ctx, "user.email", "travis@flycheck.org"))

	status, err := repo.Status(ctx)
	require.NoError(t, err)
	assert.False(t, status.HasChanges(), "fresh clone is clean")

	require.NoError(t, os.WriteFile(filepath.Join(repo.Dir(), "index.html"), []byte("v2\n"), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(repo.Dir(), "manual"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(repo.Dir(), "manual", "new.html"), []byte("new\n"), 0o600))

	status, err = repo.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"index.html"}, status.Changed)
	assert.Equal(t, []string{"manual/new.html"}, status.Added)

	require.NoError(t, repo.AddAll(ctx))
	require.NoError(t, repo.Commit(ctx, "Update from flycheck/flycheck@abcdef12"))
	require.NoError(t, repo.AddRemote(ctx, "deploy", remote))
	require.NoError(t, repo.Push(ctx, "deploy", "master:master"))

	head, err := repo.Head(ctx)
	require.NoError(t, err)
	assert.Equal(t, head, gitCmd(t, remote, "rev-parse", "master"))
	assert.Equal(t, "Flycheck Travis CI", gitCmd(t, remote, "log", "-1", "--format=%an", "master"))
	assert.Equal(t, "Update from flycheck/flycheck@abcdef12", gitCmd(t, remote, "log", "-1", "--format=%s", "master"))
}

func TestIntegration_PushRejected(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	requireGit(t)

	ctx := context.Background()
	root := t.TempDir()
	remote := seedRemote(t, root)
	runner := command.NewExecRunner()

	repo, err := Clone(ctx, runner, nil, remote, filepath.Join(root, "stale"))
	require.NoError(t, err)
	require.NoError(t, repo.Config(ctx, "user.name", "Flycheck Travis CI"))
	require.NoError(t, repo.Config(ctx, "user.email", "travis@flycheck.org"))

	// Someone else pushes first.
	other := filepath.Join(root, "seed")
	require.NoError(t, os.WriteFile(filepath.Join(other, "index.html"), []byte("other\n"), 0o600))
	gitCmd(t, other, "commit", "-am", "concurrent")
	gitCmd(t, other, "push", remote, "master")

	require.NoError(t, os.WriteFile(filepath.Join(repo.Dir(), "index.html"), []byte("mine\n"), 0o600))
	require.NoError(t, repo.AddAll(ctx))
	require.NoError(t, repo.Commit(ctx, "Update from flycheck/flycheck@abcdef12"))
	require.NoError(t, repo.AddRemote(ctx, "deploy", remote))

	err = repo.Push(ctx, "deploy", "master:master")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to push to deploy")
}
