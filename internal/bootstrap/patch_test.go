// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package bootstrap

import (
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tishareyes/vcash/pkg/errors"
	"github.com/tishareyes/vcash/pkg/recipe"
)

const generated = `# Generated Server Configuration File for Grin
[server]
db_root = "/root/.grin/floo/chain_data"
api_http_addr = "127.0.0.1:13413"

#whether to run the ncurses TUI (Ncurses must be compiled in)
run_tui = true

[server.p2p_config]
host = "0.0.0.0"
port = 13414
`

func tuiPatch() *recipe.Patch {
	return &recipe.Patch{Key: "run_tui", From: "true", To: "false"}
}

func TestApply(t *testing.T) {
	out, err := Apply([]byte(generated), tuiPatch())
	require.NoError(t, err)
	require.Equal(t, strings.Replace(generated, "run_tui = true", "run_tui = false", 1), string(out))
	require.NoError(t, Verify(out, tuiPatch()))
}

func TestApplyPreservesLayout(t *testing.T) {
	out, err := Apply([]byte("[server]\n  run_tui\t=  true  # tui\n"), tuiPatch())
	require.NoError(t, err)
	require.Equal(t, "[server]\n  run_tui\t=  false  # tui\n", string(out))
}

func TestApplyRejects(t *testing.T) {
	cases := []struct {
		Name, Doc, Message string
	}{
		{"AlreadyPatched", "run_tui = false\n", "already false"},
		{"Missing", "[server]\nport = 1\n", "not found"},
		{"Duplicate", "[a]\nrun_tui = true\n[b]\nrun_tui = true\n", "appears 2 times"},
		{"OtherValue", "run_tui = maybe\n", "unexpected value maybe"},
		{"Commented", "#run_tui = true\n", "not found"},
		{"Prefixed", "no_run_tui = true\n", "not found"},
	}
	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			_, err := Apply([]byte(c.Doc), tuiPatch())
			require.Error(t, err)
			require.Equal(t, errors.BootstrapFailed, errors.Code(err))
			require.Contains(t, err.Error(), c.Message)
		})
	}
}

func TestVerify(t *testing.T) {
	require.NoError(t, Verify([]byte("[server]\nrun_tui = false\n"), tuiPatch()))

	err := Verify([]byte("[server\nrun_tui = false\n"), tuiPatch())
	require.ErrorIs(t, err, errors.BootstrapFailed)
	require.Contains(t, err.Error(), "malformed")

	err = Verify([]byte("[server]\nrun_tui = true\n"), tuiPatch())
	require.ErrorIs(t, err, errors.BootstrapFailed)

	err = Verify([]byte("[server]\nport = 1\n"), tuiPatch())
	require.ErrorIs(t, err, errors.BootstrapFailed)
}

func TestVerifyQuotedValue(t *testing.T) {
	p := &recipe.Patch{Key: "mode", From: `"a"`, To: `"b"`}
	require.NoError(t, Verify([]byte("mode = \"b\"\n"), p))
}

func TestSedExpression(t *testing.T) {
	sed, err := exec.LookPath("sed")
	if err != nil {
		t.Skip("sed is not available")
	}

	cmd := exec.Command(sed, "-e", SedExpression(tuiPatch()))
	cmd.Stdin = strings.NewReader(generated)
	out, err := cmd.Output()
	require.NoError(t, err)

	want, err := Apply([]byte(generated), tuiPatch())
	require.NoError(t, err)
	require.Equal(t, string(want), string(out))

	grep, err := exec.LookPath("grep")
	if err != nil {
		return
	}
	cmd = exec.Command(grep, "-q", SedCheck(tuiPatch()))
	cmd.Stdin = strings.NewReader(string(out))
	require.NoError(t, cmd.Run())

	cmd = exec.Command(grep, "-q", SedCheck(tuiPatch()))
	cmd.Stdin = strings.NewReader(generated)
	require.Error(t, cmd.Run())
}

func TestSedFromCheck(t *testing.T) {
	grep, err := exec.LookPath("grep")
	if err != nil {
		t.Skip("grep is not available")
	}

	count := func(doc string) string {
		cmd := exec.Command(grep, "-c", SedFromCheck(tuiPatch()))
		cmd.Stdin = strings.NewReader(doc)
		out, _ := cmd.Output() // grep exits 1 when nothing matches
		return strings.TrimSpace(string(out))
	}

	require.Equal(t, "1", count(generated))
	require.Equal(t, "1", count("[server]\n  run_tui\t=  true  # tui\n"))
	require.Equal(t, "0", count("[server]\nrun_tui = false\n"))
	require.Equal(t, "2", count("[a]\nrun_tui = true\n[b]\nrun_tui = true\n"))
	require.Equal(t, "0", count("#run_tui = true\nno_run_tui = true\n"))
}

func TestDiff(t *testing.T) {
	d := Diff("a\nrun_tui = true\nb\n", "a\nrun_tui = false\nb\n")
	require.Equal(t, "- run_tui = true\n+ run_tui = false\n", d)
}
