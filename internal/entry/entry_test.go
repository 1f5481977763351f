// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package entry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tishareyes/vcash/pkg/errors"
	"github.com/tishareyes/vcash/pkg/recipe"
)

func TestCommandDefault(t *testing.T) {
	d := New(recipe.Default())
	require.Equal(t, []string{"/usr/local/bin/grin", "--floonet", "server", "run"}, d.Command(nil))
}

func TestCommandOverrideKeepsBinaryAndFlag(t *testing.T) {
	d := New(recipe.Default())
	argv := d.Command([]string{"client", "status"})
	require.Equal(t, []string{"/usr/local/bin/grin", "--floonet", "client", "status"}, argv)

	// An override cannot drop the network flag
	argv = d.Command([]string{"--help"})
	require.Equal(t, []string{"/usr/local/bin/grin", "--floonet", "--help"}, argv)
}

func TestCommandDoesNotAliasDefaults(t *testing.T) {
	d := New(recipe.Default())
	argv := d.Command(nil)
	argv[2] = "wallet"
	require.Equal(t, []string{"server", "run"}, d.DefaultArgs)
}

func TestForImage(t *testing.T) {
	r := recipe.Default()
	c := ForImage(r)
	require.Equal(t, []string{"/usr/local/bin/nodeimage", "entry", "--recipe", "/etc/nodeimage/recipe.toml", "--"}, c.Entrypoint)
	require.Equal(t, []string{"server", "run"}, c.Cmd)

	r.Bootstrap.Mode = recipe.BootstrapOnBuild
	c = ForImage(r)
	require.Equal(t, []string{"/usr/local/bin/grin", "--floonet"}, c.Entrypoint)
	require.Equal(t, []string{"server", "run"}, c.Cmd)
}

func TestExec(t *testing.T) {
	bin := filepath.Join(t.TempDir(), "grin")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"), 0755))

	var gotBin string
	var gotArgv []string
	execve = func(argv0 string, argv []string, envv []string) error {
		gotBin, gotArgv = argv0, argv
		return os.ErrPermission
	}
	t.Cleanup(func() { execve = defaultExecve })

	d := &Dispatcher{Binary: bin, NetworkFlag: "--floonet", DefaultArgs: []string{"server", "run"}}
	err := d.Exec([]string{"server", "config"}, []string{"LANG=en_US.UTF-8"})
	require.ErrorContains(t, err, "permission denied")
	require.Equal(t, bin, gotBin)
	require.Equal(t, []string{bin, "--floonet", "server", "config"}, gotArgv)
}

func TestExecMissingBinary(t *testing.T) {
	d := &Dispatcher{Binary: filepath.Join(t.TempDir(), "grin"), NetworkFlag: "--floonet"}
	err := d.Exec(nil, nil)
	require.True(t, errors.Is(err, errors.NotFound))
}

var defaultExecve = execve
