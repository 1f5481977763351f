// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package pipeline

import (
	"context"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/tishareyes/vcash/internal/docker"
	"github.com/tishareyes/vcash/internal/dockerfile"
	"github.com/tishareyes/vcash/internal/entry"
	"github.com/tishareyes/vcash/internal/source"
	"github.com/tishareyes/vcash/internal/surface"
	"github.com/tishareyes/vcash/pkg/errors"
	"github.com/tishareyes/vcash/pkg/recipe"
)

// Provision builds the provision stage: the builder base image with the
// build packages installed.
func (p *Pipeline) Provision(ctx context.Context) error {
	ws, err := p.Prepare(ctx)
	if err != nil {
		return err
	}

	err = p.Engine.Build(ctx, &docker.BuildOptions{
		ContextDir: p.SourceDir,
		Dockerfile: ws.Dockerfile,
		Target:     dockerfile.StageProvision,
		Tag:        StageTag(p.Tag, dockerfile.StageProvision),
		BuildArgs:  p.BuildArgs,
	})
	if err != nil {
		return errors.ProvisionFailed.WithFormat("install build packages: %w", err)
	}
	return nil
}

// Compile builds the builder stage and extracts the artifact from it.
func (p *Pipeline) Compile(ctx context.Context, rev source.Revision) (*Artifact, error) {
	ws, err := p.Prepare(ctx)
	if err != nil {
		return nil, err
	}

	tag := StageTag(p.Tag, dockerfile.StageBuilder)
	err = p.Engine.Build(ctx, &docker.BuildOptions{
		ContextDir: p.SourceDir,
		Dockerfile: ws.Dockerfile,
		Target:     dockerfile.StageBuilder,
		Tag:        tag,
		BuildArgs:  p.BuildArgs,
	})
	if err != nil {
		return nil, errors.CompileFailed.WithFormat("build %s: %w", p.Recipe.Runtime.BinaryName, err)
	}

	file := filepath.Join(ws.ArtifactDir, p.Recipe.Runtime.BinaryName)
	err = p.extract(ctx, tag, p.Recipe.ArtifactPath(), file)
	if err != nil {
		return nil, errors.CompileFailed.WithFormat("extract artifact: %w", err)
	}

	art, err := newArtifact(p.Recipe.ArtifactPath(), file, rev)
	if err != nil {
		return nil, err
	}
	p.Logger.InfoContext(ctx, "Compiled artifact", "path", art.Path, "digest", art.Digest, "size", humanize.Bytes(uint64(art.Size)), "revision", rev.Short())
	return art, nil
}

// Assemble builds the runtime image around the artifact. The runtime stage
// copies the binary from the builder stage; the image is labeled with the
// artifact's digest and revision, and Verify checks that the binary in the
// image is the artifact.
func (p *Pipeline) Assemble(ctx context.Context, art *Artifact) (*docker.Image, error) {
	if art == nil || art.Digest == "" {
		return nil, errors.BadRequest.With("assemble requires a compiled artifact")
	}

	ws, err := p.Prepare(ctx)
	if err != nil {
		return nil, err
	}

	args := map[string]string{}
	for k, v := range p.BuildArgs {
		args[k] = v
	}
	args[dockerfile.ArgRevision] = art.Revision.String()
	args[dockerfile.ArgArtifactDigest] = art.Digest

	opts := &docker.BuildOptions{
		ContextDir: p.SourceDir,
		Dockerfile: ws.Dockerfile,
		Target:     dockerfile.StageRuntime,
		Tag:        p.Tag,
		BuildArgs:  args,
	}
	if ws.EntryDir != "" {
		opts.Contexts = map[string]string{dockerfile.EntryContext: ws.EntryDir}
	}

	err = p.Engine.Build(ctx, opts)
	if err != nil {
		return nil, errors.AssemblyFailed.WithFormat("build runtime image: %w", err)
	}

	img, err := p.Engine.InspectImage(ctx, p.Tag)
	if err != nil {
		return nil, errors.AssemblyFailed.WithFormat("inspect runtime image: %w", err)
	}
	return img, nil
}

// Verify checks the assembled image: the declared surface and entrypoint,
// the artifact at the documented path, a working entry binary in start mode,
// and no build tooling or source.
func (p *Pipeline) Verify(ctx context.Context, art *Artifact, img *docker.Image) error {
	r := p.Recipe

	err := surface.Check(r.Surface, img.Config.Surface())
	if err != nil {
		return err
	}

	ic := entry.ForImage(r)
	if !reflect.DeepEqual(ic.Entrypoint, img.Config.Entrypoint) {
		return errors.AssemblyFailed.WithFormat("image entrypoint is %q, want %q", img.Config.Entrypoint, ic.Entrypoint)
	}
	if !reflect.DeepEqual(ic.Cmd, img.Config.Cmd) {
		return errors.AssemblyFailed.WithFormat("image command is %q, want %q", img.Config.Cmd, ic.Cmd)
	}
	if d := img.Config.Labels[dockerfile.LabelArtifactDigest]; d != art.Digest {
		return errors.AssemblyFailed.WithFormat("image is labeled with artifact %q, want %q", d, art.Digest)
	}

	_, err = p.Engine.Run(ctx, p.Tag, "test", "-x", r.BinaryPath())
	if err != nil {
		return errors.AssemblyFailed.WithFormat("%s is not an executable in the image: %w", r.BinaryPath(), err)
	}

	if r.Bootstrap.Mode != recipe.BootstrapOnBuild {
		_, err = p.Engine.Run(ctx, p.Tag, r.EntryBinary(), "version")
		if err != nil {
			return errors.AssemblyFailed.WithFormat("entry binary %s does not run in the image: %w", r.EntryBinary(), err)
		}
	}

	_, err = p.Engine.Run(ctx, p.Tag, "test", "!", "-e", r.Build.SourceDir)
	if err != nil {
		return errors.AssemblyFailed.WithFormat("source dir %s exists in the image: %w", r.Build.SourceDir, err)
	}

	out, err := p.Engine.Run(ctx, p.Tag, "dpkg-query", "--show", `--showformat=${Package}\n`)
	if err != nil {
		return errors.AssemblyFailed.WithFormat("list installed packages: %w", err)
	}
	if leaked := buildPackages(r, strings.Fields(string(out))); len(leaked) > 0 {
		return errors.AssemblyFailed.WithFormat("build packages installed in the image: %s", strings.Join(leaked, ", "))
	}

	ws, err := p.Prepare(ctx)
	if err != nil {
		return err
	}
	file := filepath.Join(ws.ArtifactDir, "installed-"+r.Runtime.BinaryName)
	err = p.extract(ctx, p.Tag, r.BinaryPath(), file)
	if err != nil {
		return errors.AssemblyFailed.WithFormat("extract installed binary: %w", err)
	}
	digest, err := digestFile(file)
	if err != nil {
		return errors.AssemblyFailed.WithFormat("digest installed binary: %w", err)
	}
	if digest != art.Digest {
		return errors.AssemblyFailed.WithFormat("installed binary is %s, want artifact %s", digest, art.Digest)
	}
	return nil
}

// buildPackages returns the installed packages that belong to the build
// stage.
func buildPackages(r *recipe.Recipe, installed []string) []string {
	var leaked []string
	for _, pkg := range installed {
		if i := strings.IndexByte(pkg, ':'); i > 0 {
			pkg = pkg[:i]
		}
		if r.IsBuildPackage(pkg) {
			leaked = append(leaked, pkg)
		}
	}
	sort.Strings(leaked)
	return leaked
}

// extract copies a file out of an image through a throwaway container.
func (p *Pipeline) extract(ctx context.Context, image, src, dst string) error {
	id, err := p.Engine.Create(ctx, image)
	if err != nil {
		return err
	}
	defer func() {
		err := p.Engine.Remove(context.WithoutCancel(ctx), id)
		if err != nil {
			p.Logger.WarnContext(ctx, "Failed to remove container", "container", id, "error", err)
		}
	}()

	return p.Engine.CopyFrom(ctx, id, src, dst)
}
