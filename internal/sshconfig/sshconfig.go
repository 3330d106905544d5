// Package sshconfig writes the SSH client configuration that makes git push
// over SSH use the decrypted deployment key.
package sshconfig

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kevinburke/ssh_config"
	"github.com/rs/zerolog"

	"github.com/atilaneves/flycheck/internal/constants"
	deployerrors "github.com/atilaneves/flycheck/internal/errors"
	"github.com/atilaneves/flycheck/internal/flock"
)

// Entry is a single Host block.
type Entry struct {
	Host         string
	User         string
	IdentityFile string
	Compression  bool
}

// Render formats the entry the way ssh_config(5) expects.
func (e Entry) Render() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Host %s\n", e.Host)
	if e.Compression {
		sb.WriteString("  Compression yes\n")
	}
	fmt.Fprintf(&sb, "  User %s\n", e.User)
	fmt.Fprintf(&sb, "  IdentityFile \"%s\"\n", e.IdentityFile)
	return sb.String()
}

// DefaultPath returns ~/.ssh/config.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("%w: resolve home directory: %w", deployerrors.ErrSSHConfig, err)
	}
	return filepath.Join(home, constants.SSHDirName, constants.SSHConfigName), nil
}

// Write replaces the file at path with entry, creating its directory with
// owner-only permissions. The file is exclusively locked while it is
// rewritten and is parsed back afterwards to confirm the host resolves to
// the expected identity.
func Write(ctx context.Context, path string, entry Entry, lockTimeout time.Duration) error {
	if entry.Host == "" || entry.User == "" {
		return fmt.Errorf("%w: host and user are required", deployerrors.ErrSSHConfig)
	}
	if !filepath.IsAbs(entry.IdentityFile) {
		return fmt.Errorf("%w: identity file %q must be absolute", deployerrors.ErrSSHConfig, entry.IdentityFile)
	}
	// ssh_config(5) has no escape for a double quote inside a quoted value.
	if strings.ContainsRune(entry.IdentityFile, '"') {
		return fmt.Errorf("%w: identity file %q contains a double quote", deployerrors.ErrSSHConfig, entry.IdentityFile)
	}

	if err := os.MkdirAll(filepath.Dir(path), constants.SSHDirMode); err != nil {
		return fmt.Errorf("%w: create %s: %w", deployerrors.ErrSSHConfig, filepath.Dir(path), err)
	}

	if err := writeLocked(ctx, path, []byte(entry.Render()), lockTimeout); err != nil {
		return fmt.Errorf("%w: %w", deployerrors.ErrSSHConfig, err)
	}

	if err := Verify(path, entry); err != nil {
		return err
	}

	zerolog.Ctx(ctx).Debug().
		Str("path", path).
		Str("host", entry.Host).
		Str("identity_file", entry.IdentityFile).
		Msg("ssh config written")
	return nil
}

func writeLocked(ctx context.Context, path string, content []byte, lockTimeout time.Duration) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, constants.SSHConfigMode) //#nosec G304 -- path is the ssh config location
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	if err := flock.Acquire(ctx, f, lockTimeout); err != nil {
		return fmt.Errorf("lock %s: %w", path, err)
	}
	defer func() { _ = flock.Release(f) }()

	if err := f.Truncate(0); err != nil {
		return fmt.Errorf("truncate %s: %w", path, err)
	}
	if _, err := f.WriteAt(content, 0); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Chmod(constants.SSHConfigMode); err != nil {
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	return f.Sync()
}

// Verify parses the file at path and checks that entry.Host resolves to
// entry's user and identity file.
func Verify(path string, entry Entry) error {
	f, err := os.Open(path) //#nosec G304 -- path is the ssh config location
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", deployerrors.ErrSSHConfig, path, err)
	}
	defer func() { _ = f.Close() }()

	cfg, err := ssh_config.Decode(f)
	if err != nil {
		return fmt.Errorf("%w: parse %s: %w", deployerrors.ErrSSHConfig, path, err)
	}

	checks := []struct{ key, want string }{
		{"User", entry.User},
		{"IdentityFile", entry.IdentityFile},
	}
	for _, c := range checks {
		got, err := cfg.Get(entry.Host, c.key)
		if err != nil {
			return fmt.Errorf("%w: read %s for %s: %w", deployerrors.ErrSSHConfig, c.key, entry.Host, err)
		}
		if got = unquote(got); got != c.want {
			return fmt.Errorf("%w: %s for %s is %q, want %q", deployerrors.ErrSSHConfig, c.key, entry.Host, got, c.want)
		}
	}
	return nil
}

// unquote strips the double quotes ssh(1) removes when it tokenizes a value.
func unquote(value string) string {
	if len(value) >= 2 && strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`) {
		return value[1 : len(value)-1]
	}
	return value
}
