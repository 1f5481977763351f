// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package dockerfile renders the two-stage image build for a recipe.
//
// The provision and builder stages see only the source tree. Inputs that
// belong to the pipeline, the nodeimage executable and the recipe, come from
// a named build context that only the runtime stage reads. Per-build values
// such as the source revision are build arguments declared after every RUN,
// so the rendered file and its layer cache do not depend on them.
package dockerfile

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"io"
	"path"
	"strings"
	"text/template"

	"github.com/mattn/go-shellwords"
	"github.com/tishareyes/vcash/internal/bootstrap"
	"github.com/tishareyes/vcash/internal/entry"
	"github.com/tishareyes/vcash/internal/surface"
	"github.com/tishareyes/vcash/pkg/errors"
	"github.com/tishareyes/vcash/pkg/recipe"
)

// Stage names.
const (
	StageProvision = "provision"
	StageBuilder   = "builder"
	StageRuntime   = "runtime"
)

// EntryContext is the named build context holding the entry files.
const EntryContext = "nodeimage"

// Files in the entry context.
const (
	EntryBinaryName = "nodeimage"
	EntryRecipeName = "recipe.toml"
)

// Build arguments.
const (
	ArgRevision       = "NODEIMAGE_REVISION"
	ArgArtifactDigest = "NODEIMAGE_ARTIFACT_DIGEST"
)

// Image labels.
const (
	LabelRecipe         = "io.nodeimage.recipe"
	LabelNetwork        = "io.nodeimage.network"
	LabelRevision       = "org.opencontainers.image.revision"
	LabelArtifactDigest = "io.nodeimage.artifact.digest"
)

//go:embed Dockerfile.tmpl
var dockerfileSrc string

//go:embed dockerignore.tmpl
var dockerignoreSrc string

var funcs = template.FuncMap{
	"json":  marshalJSON,
	"quote": Quote,
}

var dockerfileTmpl = template.Must(template.New("Dockerfile").Funcs(funcs).Parse(dockerfileSrc))
var dockerignoreTmpl = template.Must(template.New(".dockerignore").Funcs(funcs).Parse(dockerignoreSrc))

type view struct {
	Recipe *recipe.Recipe

	StageProvision, StageBuilder, StageRuntime string
	EntryContext                               string
	EntryBinaryName                            string
	EntryRecipeName                            string

	ArgRevision, ArgArtifactDigest string
	RevisionRef, ArtifactDigestRef string

	LabelRecipe, LabelNetwork          string
	LabelRevision, LabelArtifactDigest string

	StartMode    bool
	BuildCommand []string
	LocaleExpr   string
	PatchExpr    string
	PatchFrom    string
	PatchCheck   string
	Volumes      []string
	ExposeSpecs  []string
	Entrypoint   []string
	Cmd          []string
	Ignore       []string
}

func newView(r *recipe.Recipe) (*view, error) {
	cmd, err := shellwords.Parse(r.Build.Command)
	if err != nil {
		return nil, errors.BadRequest.WithFormat("parse build command: %w", err)
	}
	if len(cmd) == 0 {
		return nil, errors.BadRequest.With("build command is empty")
	}

	ic := entry.ForImage(r)
	return &view{
		Recipe:              r,
		StageProvision:      StageProvision,
		StageBuilder:        StageBuilder,
		StageRuntime:        StageRuntime,
		EntryContext:        EntryContext,
		EntryBinaryName:     EntryBinaryName,
		EntryRecipeName:     EntryRecipeName,
		ArgRevision:         ArgRevision,
		ArgArtifactDigest:   ArgArtifactDigest,
		RevisionRef:         `"${` + ArgRevision + `}"`,
		ArtifactDigestRef:   `"${` + ArgArtifactDigest + `}"`,
		LabelRecipe:         LabelRecipe,
		LabelNetwork:        LabelNetwork,
		LabelRevision:       LabelRevision,
		LabelArtifactDigest: LabelArtifactDigest,

		StartMode:    r.Bootstrap.Mode != recipe.BootstrapOnBuild,
		BuildCommand: cmd,
		LocaleExpr:   localeExpr(r.Runtime.Locale),
		PatchExpr:    bootstrap.SedExpression(r.Bootstrap.Patch),
		PatchFrom:    bootstrap.SedFromCheck(r.Bootstrap.Patch),
		PatchCheck:   bootstrap.SedCheck(r.Bootstrap.Patch),
		Volumes:      []string{r.Surface.Volume},
		ExposeSpecs:  surface.ExposeSpecs(r.Surface),
		Entrypoint:   ic.Entrypoint,
		Cmd:          ic.Cmd,
		Ignore:       ignored(r),
	}, nil
}

// Render writes the Dockerfile for the recipe. The output depends only on the
// recipe.
func Render(w io.Writer, r *recipe.Recipe) error {
	v, err := newView(r)
	if err != nil {
		return err
	}

	// Render into a buffer so a template failure does not leave a partial file
	buf := new(bytes.Buffer)
	err = dockerfileTmpl.Execute(buf, v)
	if err != nil {
		return errors.InternalError.WithFormat("render Dockerfile: %w", err)
	}
	_, err = buf.WriteTo(w)
	return errors.UnknownError.Wrap(err)
}

// RenderIgnore writes the .dockerignore for the source tree. It keeps stale
// build output on the host out of the build context.
func RenderIgnore(w io.Writer, r *recipe.Recipe) error {
	v, err := newView(r)
	if err != nil {
		return err
	}

	buf := new(bytes.Buffer)
	err = dockerignoreTmpl.Execute(buf, v)
	if err != nil {
		return errors.InternalError.WithFormat("render .dockerignore: %w", err)
	}
	_, err = buf.WriteTo(w)
	return errors.UnknownError.Wrap(err)
}

// ignored returns the top-level output directory of the build, e.g. target.
func ignored(r *recipe.Recipe) []string {
	dir := path.Clean(r.Build.ArtifactPath)
	if i := strings.IndexByte(dir, '/'); i > 0 {
		dir = dir[:i]
	}
	return []string{dir, ".nodeimage"}
}

// localeExpr uncomments the locale in /etc/locale.gen.
func localeExpr(locale string) string {
	charset := "UTF-8"
	if i := strings.IndexByte(locale, '.'); i >= 0 {
		charset = locale[i+1:]
	}
	return "s/^# *" + strings.ReplaceAll(locale, ".", `\.`) + " " + charset + "$/" + locale + " " + charset + "/"
}

func marshalJSON(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Quote quotes s for a POSIX shell.
func Quote(s string) string {
	if s != "" && strings.Trim(s, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-_./=:,+@") == "" {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
