// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
	"github.com/tishareyes/vcash/pkg/recipe"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	resetFlags(cmdMain)
	buf := new(bytes.Buffer)
	cmdMain.SetOut(buf)
	cmdMain.SetArgs(args)
	require.NoError(t, cmdMain.Execute())
	return buf.String()
}

// resetFlags restores every flag to its default, since commands and their
// flags are package state.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func TestRenderStdout(t *testing.T) {
	out := execute(t, "render", "--stdout")
	require.Contains(t, out, "FROM rust:1.35 AS provision\n")
	require.Contains(t, out, "COPY --from=builder /usr/src/grin/target/release/grin /usr/local/bin/grin\n")
}

func TestRenderFiles(t *testing.T) {
	dir := t.TempDir()
	execute(t, "render", "--out", dir)
	require.FileExists(t, filepath.Join(dir, "Dockerfile"))
	require.FileExists(t, filepath.Join(dir, ".dockerignore"))
}

func TestRecipeJSON(t *testing.T) {
	out := execute(t, "recipe", "--format", "json")
	var v map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	require.Equal(t, "grin", v["name"])
	require.Contains(t, v, "bootstrap")
}

func TestRecipeFromFile(t *testing.T) {
	r := recipe.Default()
	r.Network.Name = "mainnet"
	r.Network.Flag = "--mainnet"
	file := filepath.Join(t.TempDir(), "grin.yaml")
	require.NoError(t, r.SaveTo(file))

	out := execute(t, "render", "--stdout", "--recipe", file)
	require.Contains(t, out, `ENTRYPOINT ["/usr/local/bin/nodeimage","entry","--recipe","/etc/nodeimage/recipe.toml","--"]`)
	require.Contains(t, out, "(mainnet)")
}

func TestRecipeFromEnv(t *testing.T) {
	r := recipe.Default()
	r.Name = "grin-env"
	file := filepath.Join(t.TempDir(), "grin.toml")
	require.NoError(t, r.SaveTo(file))

	t.Setenv("NODEIMAGE_RECIPE", file)
	out := execute(t, "render", "--stdout")
	require.Contains(t, out, "for grin-env (floonet)")
}

func TestComposeStdout(t *testing.T) {
	out := execute(t, "compose", "--out", "-", "--", "server", "run")
	require.Contains(t, out, "grin-data")
	require.Contains(t, out, "image: grin:floonet")
	require.Contains(t, out, "13414")
}

func TestBootstrapSed(t *testing.T) {
	out := execute(t, "bootstrap", "--sed")
	require.Contains(t, out, "run_tui")
	require.Contains(t, out, "false")
}

func TestSurface(t *testing.T) {
	out := execute(t, "surface")
	require.Contains(t, out, "13413")
	require.Contains(t, out, "Volume: /root/.grin")
}

func TestMain(m *testing.M) {
	os.Unsetenv("NODEIMAGE_RECIPE")
	os.Exit(m.Run())
}
