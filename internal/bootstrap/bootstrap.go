// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package bootstrap creates the node configuration on first start. A
// configuration that already exists is never regenerated or patched again.
package bootstrap

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tishareyes/vcash/internal/logging"
	"github.com/tishareyes/vcash/internal/node"
	"github.com/tishareyes/vcash/pkg/errors"
	"github.com/tishareyes/vcash/pkg/recipe"
)

// State is the outcome of a bootstrap.
type State int

const (
	// Existing means a configuration was found and left untouched.
	Existing State = iota

	// Generated means a configuration was generated and patched.
	Generated
)

func (s State) String() string {
	switch s {
	case Existing:
		return "existing"
	case Generated:
		return "generated"
	default:
		return "unknown"
	}
}

// Result describes what Ensure did.
type Result struct {
	State State
	Path  string

	// Diff is the patch applied to the generated configuration.
	Diff string
}

// Bootstrapper generates and patches the node configuration.
type Bootstrapper struct {
	WorkDir    string
	ConfigFile string
	Patch      *recipe.Patch
	Node       node.Binary
	Logger     *slog.Logger

	// DryRun generates into a scratch directory and reports the patch without
	// touching the working directory.
	DryRun bool
}

// New returns the bootstrapper for a recipe.
func New(r *recipe.Recipe, n node.Binary, logger *slog.Logger) *Bootstrapper {
	return &Bootstrapper{
		WorkDir:    r.Bootstrap.WorkDir,
		ConfigFile: r.Bootstrap.ConfigFile,
		Patch:      r.Bootstrap.Patch,
		Node:       n,
		Logger:     logging.Module(logger, "bootstrap"),
	}
}

// Path returns the path of the configuration file.
func (b *Bootstrapper) Path() string {
	return filepath.Join(b.WorkDir, b.ConfigFile)
}

// Ensure makes sure a patched configuration exists. If the configuration
// exists it is left as is. Otherwise it is generated by the node and patched.
// If generation or patching fails, no configuration is left in place, so the
// node is never started with an unpatched configuration and the next start
// tries again.
func (b *Bootstrapper) Ensure(ctx context.Context) (*Result, error) {
	ctx = logging.With(ctx, "config", b.Path())

	_, err := os.Stat(b.Path())
	switch {
	case err == nil:
		b.Logger.InfoContext(ctx, "Configuration exists, skipping generation")
		return &Result{State: Existing, Path: b.Path()}, nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, errors.BootstrapFailed.WithFormat("stat config: %w", err)
	}

	dir := b.WorkDir
	if b.DryRun {
		dir, err = os.MkdirTemp("", "nodeimage-bootstrap-")
		if err != nil {
			return nil, errors.InternalError.WithFormat("create scratch dir: %w", err)
		}
		defer func() { _ = os.RemoveAll(dir) }()
	} else {
		err = os.MkdirAll(dir, 0700)
		if err != nil {
			return nil, errors.BootstrapFailed.WithFormat("create work dir: %w", err)
		}
	}

	res, err := b.generate(ctx, dir)
	if err != nil {
		return nil, err
	}
	if b.DryRun {
		res.Path = b.Path()
	}
	return res, nil
}

func (b *Bootstrapper) generate(ctx context.Context, dir string) (*Result, error) {
	file := filepath.Join(dir, b.ConfigFile)

	err := b.Node.GenerateConfig(ctx, dir)
	if err != nil {
		b.reject(ctx, file)
		return nil, errors.BootstrapFailed.WithFormat("generate config: %w", err)
	}

	before, err := os.ReadFile(file)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errors.BootstrapFailed.WithFormat("node did not create %s", b.ConfigFile)
	}
	if err != nil {
		return nil, errors.BootstrapFailed.WithFormat("read generated config: %w", err)
	}

	after, err := Apply(before, b.Patch)
	if err == nil {
		err = Verify(after, b.Patch)
	}
	if err != nil {
		b.reject(ctx, file)
		return nil, errors.BootstrapFailed.WithFormat("patch %s: %w", b.ConfigFile, err)
	}

	res := &Result{State: Generated, Path: file, Diff: Diff(string(before), string(after))}
	b.Logger.InfoContext(ctx, "Patched generated configuration", "diff", res.Diff)
	if b.DryRun {
		return res, nil
	}

	err = writeFileAtomic(file, after)
	if err != nil {
		b.reject(ctx, file)
		return nil, errors.BootstrapFailed.WithFormat("write patched config: %w", err)
	}
	return res, nil
}

// reject moves a generated but unusable configuration aside so the next start
// does not mistake it for a bootstrapped one.
func (b *Bootstrapper) reject(ctx context.Context, file string) {
	if _, err := os.Stat(file); err != nil {
		return
	}
	err := os.Rename(file, file+".unpatched")
	if err != nil {
		b.Logger.ErrorContext(ctx, "Failed to move rejected configuration aside", "error", err)
		_ = os.Remove(file)
		return
	}
	b.Logger.WarnContext(ctx, "Moved rejected configuration aside", "path", file+".unpatched")
}

func writeFileAtomic(file string, data []byte) error {
	info, err := os.Stat(file)
	if err != nil {
		return err
	}

	f, err := os.CreateTemp(filepath.Dir(file), "."+filepath.Base(file)+".*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(f.Name()) }()

	_, err = f.Write(data)
	if err == nil {
		err = f.Chmod(info.Mode().Perm())
	}
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	return os.Rename(f.Name(), file)
}
