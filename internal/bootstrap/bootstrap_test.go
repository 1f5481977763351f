// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package bootstrap

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tishareyes/vcash/internal/logging"
	"github.com/tishareyes/vcash/internal/node"
	"github.com/tishareyes/vcash/pkg/errors"
	"github.com/tishareyes/vcash/pkg/recipe"
)

type fakeNode struct {
	calls   int
	content string
	err     error
}

func (n *fakeNode) GenerateConfig(_ context.Context, dir string) error {
	n.calls++
	if n.content != "" {
		err := os.WriteFile(filepath.Join(dir, "grin-server.toml"), []byte(n.content), 0600)
		if err != nil {
			return err
		}
	}
	return n.err
}

func newBootstrapper(t *testing.T, n *fakeNode) *Bootstrapper {
	r := recipe.Default()
	r.Bootstrap.WorkDir = filepath.Join(t.TempDir(), ".grin")
	return New(r, n, logging.NewTestLogger(t))
}

func TestEnsureGenerates(t *testing.T) {
	n := &fakeNode{content: generated}
	b := newBootstrapper(t, n)

	res, err := b.Ensure(context.Background())
	require.NoError(t, err)
	require.Equal(t, Generated, res.State)
	require.Equal(t, b.Path(), res.Path)
	require.Contains(t, res.Diff, "+ run_tui = false")
	require.Equal(t, 1, n.calls)

	b2, err := os.ReadFile(b.Path())
	require.NoError(t, err)
	require.Equal(t, strings.Replace(generated, "run_tui = true", "run_tui = false", 1), string(b2))

	entries, err := os.ReadDir(b.WorkDir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "exactly one file is left in the work dir")
}

// networkNode is a node executable that logs its arguments next to itself
// and writes a configuration for the selected network.
const networkNode = `#!/bin/sh
echo "$@" >> "$(dirname "$0")/calls"
cat > grin-server.toml <<EOF
[server]
chain_type = "${1#--}"

run_tui = true
EOF
`

func TestEnsureAnyNetwork(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not supported on Windows")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh is not available")
	}

	cases := []struct{ Name, Flag string }{
		{"floonet", "--floonet"},
		{"mainnet", "--mainnet"},
		{"usernet", "--usernet"},
	}
	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			bin := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(bin, "grin"), []byte(networkNode), 0755))

			r := recipe.Default()
			r.Network = &recipe.Network{Name: c.Name, Flag: c.Flag}
			r.Runtime.InstallDir = bin
			r.Bootstrap.WorkDir = filepath.Join(t.TempDir(), ".grin")
			logger := logging.NewTestLogger(t)
			b := New(r, node.FromRecipe(r, logger), logger)

			res, err := b.Ensure(context.Background())
			require.NoError(t, err)
			require.Equal(t, Generated, res.State)

			calls, err := os.ReadFile(filepath.Join(bin, "calls"))
			require.NoError(t, err)
			require.Equal(t, c.Flag+" server config\n", string(calls))

			entries, err := os.ReadDir(b.WorkDir)
			require.NoError(t, err)
			require.Len(t, entries, 1)

			doc, err := os.ReadFile(b.Path())
			require.NoError(t, err)
			require.NoError(t, Verify(doc, r.Bootstrap.Patch))
			require.Contains(t, string(doc), `chain_type = "`+c.Name+`"`)
		})
	}
}

func TestEnsureSkipsExisting(t *testing.T) {
	n := &fakeNode{content: generated}
	b := newBootstrapper(t, n)

	custom := "[server]\nrun_tui = true\napi_http_addr = \"0.0.0.0:13413\"\n"
	require.NoError(t, os.MkdirAll(b.WorkDir, 0700))
	require.NoError(t, os.WriteFile(b.Path(), []byte(custom), 0600))

	res, err := b.Ensure(context.Background())
	require.NoError(t, err)
	require.Equal(t, Existing, res.State)
	require.Zero(t, n.calls)

	after, err := os.ReadFile(b.Path())
	require.NoError(t, err)
	require.Equal(t, custom, string(after))
}

func TestEnsureTwice(t *testing.T) {
	n := &fakeNode{content: generated}
	b := newBootstrapper(t, n)

	_, err := b.Ensure(context.Background())
	require.NoError(t, err)
	first, err := os.ReadFile(b.Path())
	require.NoError(t, err)

	res, err := b.Ensure(context.Background())
	require.NoError(t, err)
	require.Equal(t, Existing, res.State)
	require.Equal(t, 1, n.calls)

	second, err := os.ReadFile(b.Path())
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestEnsurePatchFailures(t *testing.T) {
	cases := map[string]string{
		"AlreadyFalse": "[server]\nrun_tui = false\n",
		"Missing":      "[server]\nport = 13414\n",
		"Duplicate":    "[a]\nrun_tui = true\n[b]\nrun_tui = true\n",
		"Malformed":    "[server\nrun_tui = true\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			b := newBootstrapper(t, &fakeNode{content: content})

			_, err := b.Ensure(context.Background())
			require.Error(t, err)
			require.Equal(t, errors.BootstrapFailed, errors.Code(err))

			// The unpatched file must not be mistaken for a bootstrapped one
			require.NoFileExists(t, b.Path())
			moved, err := os.ReadFile(b.Path() + ".unpatched")
			require.NoError(t, err)
			require.Equal(t, content, string(moved))
		})
	}
}

func TestEnsureNodeFails(t *testing.T) {
	b := newBootstrapper(t, &fakeNode{err: errors.UnknownError.With("exit status 1")})

	_, err := b.Ensure(context.Background())
	require.Error(t, err)
	require.Equal(t, errors.BootstrapFailed, errors.Code(err))
	require.NoFileExists(t, b.Path())
}

func TestEnsureNodeWritesNothing(t *testing.T) {
	b := newBootstrapper(t, &fakeNode{})

	_, err := b.Ensure(context.Background())
	require.Error(t, err)
	require.Equal(t, errors.BootstrapFailed, errors.Code(err))
	require.Contains(t, err.Error(), "did not create")
}

func TestEnsureDryRun(t *testing.T) {
	b := newBootstrapper(t, &fakeNode{content: generated})
	b.DryRun = true

	res, err := b.Ensure(context.Background())
	require.NoError(t, err)
	require.Equal(t, Generated, res.State)
	require.Equal(t, b.Path(), res.Path)
	require.Contains(t, res.Diff, "- run_tui = true")
	require.NoDirExists(t, b.WorkDir)
}
