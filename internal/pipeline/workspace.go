// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package pipeline

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/tishareyes/vcash/internal/dockerfile"
	"github.com/tishareyes/vcash/pkg/errors"
	"github.com/tishareyes/vcash/pkg/recipe"
)

// Workspace is the directory a build is rendered into. It is never part of
// the compile stage's build context.
type Workspace struct {
	Dir string

	// Dockerfile is the rendered Dockerfile. Its ignore file sits next to
	// it, so the source tree is not modified.
	Dockerfile string

	// EntryDir is the named build context of the runtime stage. It is empty
	// when the configuration is bootstrapped at build time.
	EntryDir string

	// ArtifactDir receives files extracted from images.
	ArtifactDir string

	temporary bool
}

func (w *Workspace) cleanup() {
	if w.temporary {
		_ = os.RemoveAll(w.Dir)
	}
}

// Prepare renders the build into the work directory.
func (p *Pipeline) Prepare(ctx context.Context) (*Workspace, error) {
	if p.ws != nil {
		return p.ws, nil
	}

	ws := new(Workspace)
	if p.WorkDir != "" {
		ws.Dir = p.WorkDir
		err := os.MkdirAll(ws.Dir, 0755)
		if err != nil {
			return nil, errors.UnknownError.WithFormat("create work dir: %w", err)
		}
	} else {
		dir, err := os.MkdirTemp("", "nodeimage-")
		if err != nil {
			return nil, errors.UnknownError.WithFormat("create work dir: %w", err)
		}
		ws.Dir = dir
		ws.temporary = !p.DryRun
	}

	ws.Dockerfile = filepath.Join(ws.Dir, "Dockerfile")
	buf := new(bytes.Buffer)
	err := dockerfile.Render(buf, p.Recipe)
	if err != nil {
		return nil, err
	}
	err = os.WriteFile(ws.Dockerfile, buf.Bytes(), 0644)
	if err != nil {
		return nil, errors.UnknownError.WithFormat("write Dockerfile: %w", err)
	}

	buf.Reset()
	err = dockerfile.RenderIgnore(buf, p.Recipe)
	if err != nil {
		return nil, err
	}
	err = os.WriteFile(ws.Dockerfile+".dockerignore", buf.Bytes(), 0644)
	if err != nil {
		return nil, errors.UnknownError.WithFormat("write ignore file: %w", err)
	}

	ws.ArtifactDir = filepath.Join(ws.Dir, "artifact")
	err = os.MkdirAll(ws.ArtifactDir, 0755)
	if err != nil {
		return nil, errors.UnknownError.WithFormat("create artifact dir: %w", err)
	}

	if p.Recipe.Bootstrap.Mode != recipe.BootstrapOnBuild {
		ws.EntryDir = filepath.Join(ws.Dir, "entry")
		err = p.prepareEntry(ws.EntryDir)
		if err != nil {
			return nil, err
		}
	}

	p.Logger.DebugContext(ctx, "Prepared workspace", "dir", ws.Dir)
	p.ws = ws
	return ws, nil
}

// prepareEntry populates the entry context with the nodeimage executable and
// the recipe.
func (p *Pipeline) prepareEntry(dir string) error {
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return errors.UnknownError.WithFormat("create entry context: %w", err)
	}

	// Values are already expanded
	baked := *p.Recipe
	baked.DotEnv = nil
	b, err := baked.Marshal(recipe.MarshalTOML)
	if err != nil {
		return err
	}
	err = os.WriteFile(filepath.Join(dir, dockerfile.EntryRecipeName), b, 0644)
	if err != nil {
		return errors.UnknownError.WithFormat("write recipe: %w", err)
	}

	if p.DryRun && p.EntryBinary == "" {
		return nil
	}
	exe, err := entryBinary(&p.Options)
	if err != nil {
		return err
	}
	return copyExecutable(exe, filepath.Join(dir, dockerfile.EntryBinaryName))
}

func copyExecutable(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.BadRequest.WithFormat("open entry binary: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0755)
	if err != nil {
		return errors.UnknownError.WithFormat("create entry binary: %w", err)
	}
	_, err = io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return errors.UnknownError.WithFormat("copy entry binary: %w", err)
	}
	return nil
}
