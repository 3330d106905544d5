// Package workspace manages the temporary working directory of a deployment.
//
// Everything a deployment writes besides ~/.ssh/config lives inside this
// directory: the website clone and the decrypted key. Removing it is the
// only cleanup a run needs.
package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/atilaneves/flycheck/internal/constants"
	deployerrors "github.com/atilaneves/flycheck/internal/errors"
)

// Dir is a uniquely named temporary directory.
type Dir struct {
	path string
	once sync.Once
	err  error
}

// Create makes a new working directory under base, or under os.TempDir()
// when base is empty. The returned path is absolute.
func Create(ctx context.Context, base string) (*Dir, error) {
	if base != "" {
		if err := os.MkdirAll(base, 0o750); err != nil {
			return nil, fmt.Errorf("%w: create base %s: %w", deployerrors.ErrWorkspace, base, err)
		}
	}

	path, err := os.MkdirTemp(base, constants.WorkDirPattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", deployerrors.ErrWorkspace, err)
	}
	if abs, absErr := filepath.Abs(path); absErr == nil {
		path = abs
	}

	zerolog.Ctx(ctx).Debug().Str("work_dir", path).Msg("working directory created")
	return &Dir{path: path}, nil
}

// Path returns the absolute directory path.
func (d *Dir) Path() string {
	return d.path
}

// Join returns a path inside the directory.
func (d *Dir) Join(elem ...string) string {
	return filepath.Join(append([]string{d.path}, elem...)...)
}

// Remove deletes the directory and everything in it. Only the first call
// does any work; later calls return its result.
func (d *Dir) Remove(ctx context.Context) error {
	d.once.Do(func() {
		if err := os.RemoveAll(d.path); err != nil {
			d.err = fmt.Errorf("%w: remove %s: %w", deployerrors.ErrWorkspace, d.path, err)
			zerolog.Ctx(ctx).Warn().Err(err).Str("work_dir", d.path).Msg("failed to remove working directory")
			return
		}
		zerolog.Ctx(ctx).Debug().Str("work_dir", d.path).Msg("working directory removed")
	})
	return d.err
}
