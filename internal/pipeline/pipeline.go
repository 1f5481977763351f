// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package pipeline drives the staged image build: provision, compile,
// assemble, and verify. Phases run strictly in order, each blocks until it is
// done, and the first failure stops the build. Nothing is retried.
package pipeline

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/tishareyes/vcash/internal/docker"
	"github.com/tishareyes/vcash/internal/logging"
	"github.com/tishareyes/vcash/internal/records"
	"github.com/tishareyes/vcash/internal/source"
	"github.com/tishareyes/vcash/pkg/errors"
	"github.com/tishareyes/vcash/pkg/recipe"
)

// Phase is a pipeline phase.
type Phase string

const (
	PhaseProvision Phase = "provision"
	PhaseCompile   Phase = "compile"
	PhaseAssemble  Phase = "assemble"
	PhaseVerify    Phase = "verify"
)

// Options are the options of a build.
type Options struct {
	// SourceDir is the source tree of the node. It is the entire build
	// context of the compile stage.
	SourceDir string

	// WorkDir holds the rendered Dockerfile, the entry context, and the
	// extracted artifact. A temporary directory is used if it is empty.
	WorkDir string

	// Tag is the image reference. Defaults to <recipe>:<network>.
	Tag string

	// EntryBinary is the nodeimage executable installed in the image in
	// start mode. Defaults to the running executable. It must run on the
	// runtime base image.
	EntryBinary string

	// BuildArgs are passed to every stage.
	BuildArgs map[string]string

	// DryRun renders the build without running it.
	DryRun bool
}

// Pipeline builds the image for a recipe.
type Pipeline struct {
	Options
	Recipe *recipe.Recipe
	Engine docker.Engine
	Logger *slog.Logger

	// Ledger, if set, records every build.
	Ledger *records.Ledger

	// Metrics, if set, observes every build.
	Metrics *Metrics

	ws *Workspace
}

// New returns a pipeline for the recipe.
func New(r *recipe.Recipe, engine docker.Engine, logger *slog.Logger, opts Options) *Pipeline {
	if opts.Tag == "" {
		opts.Tag = r.Name + ":" + r.Network.Name
	}
	return &Pipeline{
		Options: opts,
		Recipe:  r,
		Engine:  engine,
		Logger:  logging.Module(logger, "pipeline"),
	}
}

// PhaseResult is the outcome of a phase.
type PhaseResult struct {
	Phase    Phase         `json:"phase"`
	Duration time.Duration `json:"duration"`
	Status   errors.Status `json:"status"`
}

// Report is the outcome of a build.
type Report struct {
	ID        uuid.UUID       `json:"id"`
	Recipe    string          `json:"recipe"`
	Network   string          `json:"network"`
	Image     string          `json:"image"`
	ImageID   string          `json:"imageId,omitempty"`
	ImageSize int64           `json:"imageSize,omitempty"`
	Artifact  *Artifact       `json:"artifact,omitempty"`
	Revision  source.Revision `json:"revision"`
	WorkDir   string          `json:"workDir,omitempty"`
	Started   time.Time       `json:"started"`
	Duration  time.Duration   `json:"duration"`
	Phases    []PhaseResult   `json:"phases"`
	Status    errors.Status   `json:"status"`
	Error     string          `json:"error,omitempty"`
}

// Run runs every phase in order and returns the report. The report is
// returned even if the build fails.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		ID:      records.NewID(),
		Recipe:  p.Recipe.Name,
		Network: p.Recipe.Network.Name,
		Image:   p.Tag,
		Started: time.Now(),
	}
	ctx = logging.With(ctx, "build", report.ID.String(), "image", p.Tag)

	err := p.run(ctx, report)
	report.Duration = time.Since(report.Started)
	report.Status = errors.OK
	if err != nil {
		report.Status = errors.Code(err)
		report.Error = err.Error()
	}

	if p.DryRun {
		return report, err
	}

	p.record(ctx, report)
	if err != nil {
		p.Logger.ErrorContext(ctx, "Build failed", "status", report.Status, "error", err, "duration", report.Duration.Round(time.Millisecond))
		return report, err
	}
	p.Logger.InfoContext(ctx, "Build complete", "image-id", report.ImageID, "size", humanize.Bytes(uint64(report.ImageSize)), "duration", report.Duration.Round(time.Millisecond))
	return report, nil
}

func (p *Pipeline) run(ctx context.Context, report *Report) error {
	err := p.Recipe.Validate()
	if err != nil {
		return err
	}

	rev, err := source.Describe(p.SourceDir)
	if err != nil {
		p.Logger.WarnContext(ctx, "Cannot determine source revision", "error", err)
	}
	report.Revision = rev

	ws, err := p.Prepare(ctx)
	if err != nil {
		return err
	}
	report.WorkDir = ws.Dir
	if p.DryRun {
		p.Logger.InfoContext(ctx, "Rendered build", "dir", ws.Dir)
		return nil
	}
	defer ws.cleanup()

	err = p.phase(ctx, report, PhaseProvision, func(ctx context.Context) error {
		return p.Provision(ctx)
	})
	if err != nil {
		return err
	}

	var art *Artifact
	err = p.phase(ctx, report, PhaseCompile, func(ctx context.Context) error {
		art, err = p.Compile(ctx, rev)
		return err
	})
	if err != nil {
		return err
	}
	report.Artifact = art

	var img *docker.Image
	err = p.phase(ctx, report, PhaseAssemble, func(ctx context.Context) error {
		img, err = p.Assemble(ctx, art)
		return err
	})
	if err != nil {
		return err
	}
	report.ImageID = img.ID
	report.ImageSize = img.Size

	return p.phase(ctx, report, PhaseVerify, func(ctx context.Context) error {
		return p.Verify(ctx, art, img)
	})
}

func (p *Pipeline) phase(ctx context.Context, report *Report, phase Phase, fn func(context.Context) error) error {
	ctx = logging.With(ctx, "phase", string(phase))
	p.Logger.InfoContext(ctx, "Starting phase")

	start := time.Now()
	err := fn(ctx)
	result := PhaseResult{Phase: phase, Duration: time.Since(start), Status: errors.OK}
	if err != nil {
		result.Status = errors.Code(err)
	}
	report.Phases = append(report.Phases, result)

	if err != nil {
		return err
	}
	p.Logger.InfoContext(ctx, "Phase complete", "duration", result.Duration.Round(time.Millisecond))
	return nil
}

func (p *Pipeline) record(ctx context.Context, report *Report) {
	if p.Metrics != nil {
		p.Metrics.Observe(report)
	}
	if p.Ledger == nil {
		return
	}

	b := &records.Build{
		ID:       report.ID,
		Recipe:   report.Recipe,
		Network:  report.Network,
		Image:    report.Image,
		Revision: report.Revision.String(),
		Started:  report.Started,
		Duration: report.Duration,
		Phases:   map[string]time.Duration{},
		Status:   report.Status,
		Error:    report.Error,
	}
	if report.Artifact != nil {
		b.ArtifactDigest = report.Artifact.Digest
		b.ArtifactSize = report.Artifact.Size
	}
	for _, ph := range report.Phases {
		b.Phases[string(ph.Phase)] = ph.Duration
	}
	err := p.Ledger.Put(b)
	if err != nil {
		p.Logger.ErrorContext(ctx, "Failed to record build", "error", err)
	}
}

// StageTag returns the tag of an intermediate stage image, e.g. grin:floonet
// becomes grin:floonet-builder.
func StageTag(tag, stage string) string {
	repo, t := tag, "latest"
	if i := strings.LastIndexByte(tag, ':'); i > strings.LastIndexByte(tag, '/') {
		repo, t = tag[:i], tag[i+1:]
	}
	return repo + ":" + t + "-" + stage
}

// hostOS is the platform this executable was built for.
var hostOS = runtime.GOOS

func entryBinary(opts *Options) (string, error) {
	if opts.EntryBinary != "" {
		return opts.EntryBinary, nil
	}
	if hostOS != "linux" {
		return "", errors.BadRequest.WithFormat("nodeimage is built for %s and cannot run in the image, use --entry-binary to provide a linux build", hostOS)
	}
	exe, err := os.Executable()
	if err != nil {
		return "", errors.InternalError.WithFormat("locate nodeimage executable: %w", err)
	}
	return filepath.EvalSymlinks(exe)
}
