// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package docker

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/mattn/go-shellwords"
	"github.com/tishareyes/vcash/internal/logging"
	"github.com/tishareyes/vcash/pkg/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"
)

// DefaultCommand is the default engine command.
const DefaultCommand = "docker"

// CLI is an [Engine] that runs a docker-compatible command line client, such
// as docker, podman, or sudo docker.
type CLI struct {
	argv   []string
	logger *slog.Logger
}

var _ Engine = (*CLI)(nil)

// NewCLI parses command, in shell-words syntax, and returns an engine that
// runs it.
func NewCLI(command string, logger *slog.Logger) (*CLI, error) {
	if command == "" {
		command = DefaultCommand
	}
	argv, err := shellwords.Parse(command)
	if err != nil {
		return nil, errors.BadRequest.WithFormat("parse engine command %q: %w", command, err)
	}
	if len(argv) == 0 {
		return nil, errors.BadRequest.WithFormat("engine command %q is empty", command)
	}
	return &CLI{argv: argv, logger: logging.Module(logger, "docker")}, nil
}

// Command returns the engine command line.
func (c *CLI) Command() []string { return c.argv }

func (c *CLI) Build(ctx context.Context, opts *BuildOptions) error {
	args := []string{"build", "--file", opts.Dockerfile}
	if opts.Target != "" {
		args = append(args, "--target", opts.Target)
	}
	if opts.Tag != "" {
		args = append(args, "--tag", opts.Tag)
	}
	for _, k := range sortedKeys(opts.BuildArgs) {
		args = append(args, "--build-arg", k+"="+opts.BuildArgs[k])
	}
	for _, k := range sortedKeys(opts.Contexts) {
		args = append(args, "--build-context", k+"="+opts.Contexts[k])
	}
	args = append(args, opts.ContextDir)

	_, err := c.run(ctx, []string{"DOCKER_BUILDKIT=1"}, args...)
	return err
}

func (c *CLI) Create(ctx context.Context, image string) (string, error) {
	out, err := c.run(ctx, nil, "create", image)
	if err != nil {
		return "", err
	}
	id := strings.TrimSpace(string(out))
	if id == "" {
		return "", errors.EngineFailed.WithFormat("create %s: no container ID", image)
	}
	return id, nil
}

func (c *CLI) CopyFrom(ctx context.Context, container, src, dst string) error {
	_, err := c.run(ctx, nil, "cp", container+":"+src, dst)
	return err
}

func (c *CLI) Remove(ctx context.Context, container string) error {
	_, err := c.run(ctx, nil, "rm", "--force", container)
	return err
}

func (c *CLI) InspectImage(ctx context.Context, image string) (*Image, error) {
	out, err := c.run(ctx, nil, "image", "inspect", "--format", "{{json .}}", image)
	if err != nil {
		return nil, errors.NotFound.WithFormat("inspect %s: %w", image, err)
	}
	return parseImage(out)
}

func (c *CLI) Run(ctx context.Context, image string, argv ...string) ([]byte, error) {
	if len(argv) == 0 {
		return nil, errors.BadRequest.With("run: empty command")
	}
	args := []string{"run", "--rm", "--entrypoint", argv[0], image}
	args = append(args, argv[1:]...)
	return c.run(ctx, nil, args...)
}

// run runs the engine. Standard error is logged line by line as it arrives;
// standard output is captured and logged at debug level.
func (c *CLI) run(ctx context.Context, env []string, args ...string) ([]byte, error) {
	argv := append(append([]string(nil), c.argv[1:]...), args...)
	cmd := exec.CommandContext(ctx, c.argv[0], argv...)
	if env != nil {
		cmd.Env = append(os.Environ(), env...)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, errors.InternalError.Wrap(err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, errors.InternalError.Wrap(err)
	}

	c.logger.DebugContext(ctx, "Running engine", "command", cmd.String())
	err = cmd.Start()
	if err != nil {
		return nil, errors.EngineFailed.WithFormat("start %s: %w", c.argv[0], err)
	}

	out := new(bytes.Buffer)
	errTail := new(tailBuffer)
	outLog := &logging.LineWriter{Logger: c.logger, Level: slog.LevelDebug, Ctx: ctx}
	errLog := &logging.LineWriter{Logger: c.logger, Level: slog.LevelInfo, Ctx: ctx}

	var g errgroup.Group
	g.Go(func() error {
		_, err := io.Copy(io.MultiWriter(out, outLog), stdout)
		return err
	})
	g.Go(func() error {
		_, err := io.Copy(io.MultiWriter(errTail, errLog), stderr)
		return err
	})
	pumpErr := g.Wait()
	outLog.Flush()
	errLog.Flush()

	err = cmd.Wait()
	if err != nil {
		return out.Bytes(), errors.EngineFailed.WithFormat("%s %s: %w%s", c.argv[0], args[0], err, errTail.Summary())
	}
	if pumpErr != nil {
		return out.Bytes(), errors.EngineFailed.WithFormat("read %s output: %w", c.argv[0], pumpErr)
	}
	return out.Bytes(), nil
}

type inspectResult struct {
	ID     string `json:"Id"`
	Size   int64  `json:"Size"`
	Config struct {
		ExposedPorts map[string]struct{} `json:"ExposedPorts"`
		Volumes      map[string]struct{} `json:"Volumes"`
		Entrypoint   []string            `json:"Entrypoint"`
		Cmd          []string            `json:"Cmd"`
		Env          []string            `json:"Env"`
		WorkingDir   string              `json:"WorkingDir"`
		Labels       map[string]string   `json:"Labels"`
	} `json:"Config"`
}

func parseImage(b []byte) (*Image, error) {
	var r inspectResult
	err := json.Unmarshal(bytes.TrimSpace(b), &r)
	if err != nil {
		return nil, errors.EngineFailed.WithFormat("decode image inspection: %w", err)
	}
	return &Image{
		ID:   r.ID,
		Size: r.Size,
		Config: ImageConfig{
			ExposedPorts: r.Config.ExposedPorts,
			Volumes:      r.Config.Volumes,
			Entrypoint:   r.Config.Entrypoint,
			Cmd:          r.Config.Cmd,
			Env:          r.Config.Env,
			WorkingDir:   r.Config.WorkingDir,
			Labels:       r.Config.Labels,
		},
	}, nil
}

// tailBuffer keeps the last lines written to it.
type tailBuffer struct {
	lines   []string
	partial string
}

const tailLines = 10

func (t *tailBuffer) Write(b []byte) (int, error) {
	s := t.partial + string(b)
	parts := strings.Split(s, "\n")
	t.partial = parts[len(parts)-1]
	for _, line := range parts[:len(parts)-1] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		t.lines = append(t.lines, line)
	}
	if len(t.lines) > tailLines {
		t.lines = t.lines[len(t.lines)-tailLines:]
	}
	return len(b), nil
}

// Summary returns the tail formatted for an error message.
func (t *tailBuffer) Summary() string {
	lines := t.lines
	if strings.TrimSpace(t.partial) != "" {
		lines = append(lines, t.partial)
	}
	if len(lines) == 0 {
		return ""
	}
	return ": " + strings.Join(lines, "; ")
}

func sortedKeys(m map[string]string) []string {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}
