// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tishareyes/vcash/internal/docker"
	"github.com/tishareyes/vcash/internal/dockerfile"
	"github.com/tishareyes/vcash/internal/entry"
	"github.com/tishareyes/vcash/internal/surface"
	"github.com/tishareyes/vcash/pkg/errors"
	"github.com/tishareyes/vcash/pkg/recipe"
)

// fakeEngine simulates a container engine that builds the rendered
// Dockerfile faithfully, unless told otherwise.
type fakeEngine struct {
	recipe *recipe.Recipe

	builds     []*docker.BuildOptions
	files      map[string][]byte
	images     map[string]*docker.Image
	containers map[string]string
	runs       [][]string
	nextID     int

	binary      []byte
	binaryMode  os.FileMode
	noArtifact  bool
	tamper      func(img *docker.Image)
	installed   []string
	sourceInImg bool
	entryBroken bool
	fail        map[string]error
}

var _ docker.Engine = (*fakeEngine)(nil)

func newFakeEngine(r *recipe.Recipe) *fakeEngine {
	return &fakeEngine{
		recipe:     r,
		files:      map[string][]byte{},
		images:     map[string]*docker.Image{},
		containers: map[string]string{},
		binary:     []byte("\x7fELF grin"),
		binaryMode: 0755,
		installed:  []string{"base-files", "bash", "libc6", "libssl1.1", "locales", "openssl"},
		fail:       map[string]error{},
	}
}

func (e *fakeEngine) Build(_ context.Context, opts *docker.BuildOptions) error {
	e.builds = append(e.builds, opts)
	if err := e.fail[opts.Target]; err != nil {
		return err
	}

	switch opts.Target {
	case dockerfile.StageBuilder:
		if !e.noArtifact {
			e.files[opts.Tag+":"+e.recipe.ArtifactPath()] = e.binary
		}

	case dockerfile.StageRuntime:
		builder := StageTag(opts.Tag, dockerfile.StageBuilder)
		bin, ok := e.files[builder+":"+e.recipe.ArtifactPath()]
		if !ok {
			return errors.EngineFailed.With("COPY --from=builder: file not found")
		}
		e.files[opts.Tag+":"+e.recipe.BinaryPath()] = bin
		if dir, ok := opts.Contexts[dockerfile.EntryContext]; ok {
			exe, err := os.ReadFile(filepath.Join(dir, dockerfile.EntryBinaryName))
			if err != nil {
				return errors.EngineFailed.WithFormat("COPY --from=%s: %w", dockerfile.EntryContext, err)
			}
			e.files[opts.Tag+":"+e.recipe.EntryBinary()] = exe
		}

		ic := entry.ForImage(e.recipe)
		img := &docker.Image{ID: "sha256:runtime", Size: 90 << 20}
		img.Config.ExposedPorts = map[string]struct{}{}
		for _, p := range surface.ExposeSpecs(e.recipe.Surface) {
			img.Config.ExposedPorts[p] = struct{}{}
		}
		img.Config.Volumes = map[string]struct{}{e.recipe.Surface.Volume: {}}
		img.Config.Entrypoint = ic.Entrypoint
		img.Config.Cmd = ic.Cmd
		img.Config.Labels = map[string]string{
			dockerfile.LabelRevision:       opts.BuildArgs[dockerfile.ArgRevision],
			dockerfile.LabelArtifactDigest: opts.BuildArgs[dockerfile.ArgArtifactDigest],
		}
		if e.tamper != nil {
			e.tamper(img)
		}
		e.images[opts.Tag] = img
	}
	return nil
}

func (e *fakeEngine) Create(_ context.Context, image string) (string, error) {
	e.nextID++
	id := fmt.Sprintf("c%d", e.nextID)
	e.containers[id] = image
	return id, nil
}

func (e *fakeEngine) CopyFrom(_ context.Context, container, src, dst string) error {
	image, ok := e.containers[container]
	if !ok {
		return errors.EngineFailed.WithFormat("no such container %s", container)
	}
	b, ok := e.files[image+":"+src]
	if !ok {
		return errors.EngineFailed.WithFormat("could not find the file %s in container %s", src, container)
	}
	mode := os.FileMode(0755)
	if strings.HasSuffix(image, "-"+dockerfile.StageBuilder) {
		mode = e.binaryMode
	}
	return os.WriteFile(dst, b, mode)
}

func (e *fakeEngine) Remove(_ context.Context, container string) error {
	delete(e.containers, container)
	return nil
}

func (e *fakeEngine) InspectImage(_ context.Context, image string) (*docker.Image, error) {
	img, ok := e.images[image]
	if !ok {
		return nil, errors.NotFound.WithFormat("no such image %s", image)
	}
	return img, nil
}

func (e *fakeEngine) Run(_ context.Context, image string, argv ...string) ([]byte, error) {
	e.runs = append(e.runs, argv)
	switch {
	case len(argv) == 3 && argv[0] == "test" && argv[1] == "-x":
		if _, ok := e.files[image+":"+argv[2]]; !ok {
			return nil, errors.EngineFailed.With("exit status 1")
		}
		return nil, nil
	case len(argv) == 4 && argv[0] == "test" && argv[1] == "!":
		if e.sourceInImg {
			return nil, errors.EngineFailed.With("exit status 1")
		}
		return nil, nil
	case len(argv) == 2 && argv[0] == e.recipe.EntryBinary() && argv[1] == "version":
		if _, ok := e.files[image+":"+argv[0]]; !ok {
			return nil, errors.EngineFailed.With("exec: no such file or directory")
		}
		if e.entryBroken {
			return nil, errors.EngineFailed.With("exec format error")
		}
		return []byte("nodeimage version unknown\n"), nil
	case argv[0] == "dpkg-query":
		return []byte(strings.Join(e.installed, "\n") + "\n"), nil
	}
	return nil, errors.EngineFailed.WithFormat("unexpected command %q", argv)
}
