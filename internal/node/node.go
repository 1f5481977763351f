// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package node is the boundary to the node binary. Nothing about the node is
// assumed beyond its command line: a config-generation subcommand and a run
// command.
package node

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/tishareyes/vcash/internal/logging"
	"github.com/tishareyes/vcash/pkg/errors"
	"github.com/tishareyes/vcash/pkg/recipe"
)

// Binary is the node binary as seen by the bootstrapper.
type Binary interface {
	// GenerateConfig writes the network's default configuration into dir.
	GenerateConfig(ctx context.Context, dir string) error
}

// Exec runs the real node executable.
type Exec struct {
	Path         string
	NetworkFlag  string
	GenerateArgs []string
	Logger       *slog.Logger
}

var _ Binary = (*Exec)(nil)

// FromRecipe returns the node executable described by the recipe.
func FromRecipe(r *recipe.Recipe, logger *slog.Logger) *Exec {
	return &Exec{
		Path:         r.BinaryPath(),
		NetworkFlag:  r.Network.Flag,
		GenerateArgs: r.Bootstrap.GenerateArgs,
		Logger:       logging.Module(logger, "node"),
	}
}

// GenerateConfig runs `<node> <flag> <generate args...>` in dir.
func (e *Exec) GenerateConfig(ctx context.Context, dir string) error {
	args := append([]string{e.NetworkFlag}, e.GenerateArgs...)
	cmd := exec.CommandContext(ctx, e.Path, args...)
	cmd.Dir = dir

	stderr := new(bytes.Buffer)
	stdout := &logging.LineWriter{Logger: e.Logger, Level: slog.LevelDebug, Ctx: ctx}
	defer stdout.Flush()
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	e.Logger.InfoContext(ctx, "Generating node configuration", "command", cmd.String(), "dir", dir)
	err := cmd.Run()
	if err != nil {
		return errors.BootstrapFailed.WithFormat("%s %s: %w%s", e.Path, strings.Join(args, " "), err, tail(stderr.String()))
	}
	return nil
}

// tail returns the last few lines of s, formatted for an error message.
func tail(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) > 5 {
		lines = lines[len(lines)-5:]
	}
	return ": " + strings.Join(lines, "; ")
}
