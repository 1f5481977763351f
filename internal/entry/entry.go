// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package entry composes the node's startup command. The binary and the
// network-selector flag are structural; only the trailing subcommand is
// variable.
package entry

import (
	"os"
	"os/exec"
	"path/filepath"

	"github.com/tishareyes/vcash/pkg/errors"
	"github.com/tishareyes/vcash/pkg/recipe"
	"golang.org/x/sys/unix"
)

// Dispatcher builds and executes the node command line.
type Dispatcher struct {
	Binary      string
	NetworkFlag string
	DefaultArgs []string
}

// New returns the dispatcher for a recipe.
func New(r *recipe.Recipe) *Dispatcher {
	return &Dispatcher{
		Binary:      r.BinaryPath(),
		NetworkFlag: r.Network.Flag,
		DefaultArgs: r.Entry.DefaultArgs,
	}
}

// Command returns [binary, flag, args...]. An empty args selects the default
// subcommand tail.
func (d *Dispatcher) Command(args []string) []string {
	if len(args) == 0 {
		args = d.DefaultArgs
	}
	argv := make([]string, 0, 2+len(args))
	argv = append(argv, d.Binary, d.NetworkFlag)
	argv = append(argv, args...)
	return argv
}

// ImageCommand is the ENTRYPOINT and CMD of an image.
type ImageCommand struct {
	Entrypoint []string
	Cmd        []string
}

// ForImage returns the ENTRYPOINT and CMD for the recipe's image. Container
// arguments replace CMD and never the entrypoint, so the binary and network
// flag stay fixed.
func ForImage(r *recipe.Recipe) ImageCommand {
	d := New(r)
	c := ImageCommand{Cmd: append([]string(nil), d.DefaultArgs...)}
	switch r.Bootstrap.Mode {
	case recipe.BootstrapOnBuild:
		c.Entrypoint = []string{d.Binary, d.NetworkFlag}
	default:
		c.Entrypoint = []string{r.EntryBinary(), "entry", "--recipe", r.EntryRecipePath(), "--"}
	}
	return c
}

var execve = unix.Exec

// Exec replaces the current process with the node. It only returns on error.
func (d *Dispatcher) Exec(args []string, env []string) error {
	argv := d.Command(args)

	bin := argv[0]
	if !filepath.IsAbs(bin) {
		p, err := exec.LookPath(bin)
		if err != nil {
			return errors.NotFound.WithFormat("node binary %s: %w", bin, err)
		}
		bin = p
	}
	if _, err := os.Stat(bin); err != nil {
		return errors.NotFound.WithFormat("node binary: %w", err)
	}
	if env == nil {
		env = os.Environ()
	}

	err := execve(bin, argv, env)
	return errors.UnknownError.WithFormat("exec %s: %w", bin, err)
}
