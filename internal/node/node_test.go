// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package node

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tishareyes/vcash/internal/logging"
	"github.com/tishareyes/vcash/pkg/errors"
	"github.com/tishareyes/vcash/pkg/recipe"
)

// fakeNode writes a shell script that behaves like `grin <flag> server config`.
func fakeNode(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not supported on Windows")
	}
	bin := filepath.Join(t.TempDir(), "grin")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"+script), 0755))
	return bin
}

func TestGenerateConfig(t *testing.T) {
	bin := fakeNode(t, `
[ "$1" = "--floonet" ] || exit 3
[ "$2 $3" = "server config" ] || exit 4
echo 'run_tui = true' > grin-server.toml
echo done
`)

	r := recipe.Default()
	e := FromRecipe(r, logging.NewTestLogger(t))
	e.Path = bin

	dir := t.TempDir()
	require.NoError(t, e.GenerateConfig(context.Background(), dir))
	b, err := os.ReadFile(filepath.Join(dir, "grin-server.toml"))
	require.NoError(t, err)
	require.Equal(t, "run_tui = true\n", string(b))
}

func TestGenerateConfigFailure(t *testing.T) {
	bin := fakeNode(t, `
echo "unknown chain" >&2
exit 2
`)
	e := &Exec{Path: bin, NetworkFlag: "--floonet", GenerateArgs: []string{"server", "config"}, Logger: logging.NewTestLogger(t)}
	err := e.GenerateConfig(context.Background(), t.TempDir())
	require.True(t, errors.Is(err, errors.BootstrapFailed))
	require.ErrorContains(t, err, "unknown chain")
}
