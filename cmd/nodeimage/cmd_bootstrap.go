// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tishareyes/vcash/internal/bootstrap"
	. "github.com/tishareyes/vcash/internal/cmdutil"
	"github.com/tishareyes/vcash/internal/node"
)

var cmdBootstrap = &cobra.Command{
	Use:   "bootstrap",
	Short: "Generate and patch the node configuration if it does not exist",
	Args:  cobra.NoArgs,
	Run:   runBootstrap,
}

var flagBootstrap struct {
	WorkDir string
	Node    string
	DryRun  bool
	Sed     bool
}

func init() {
	cmdMain.AddCommand(cmdBootstrap)
	cmdBootstrap.Flags().StringVarP(&flagBootstrap.WorkDir, "work-dir", "w", "", "Node working directory (default: the recipe's)")
	cmdBootstrap.Flags().StringVar(&flagBootstrap.Node, "node", "", "Node binary (default: the recipe's)")
	cmdBootstrap.Flags().BoolVar(&flagBootstrap.DryRun, "dry-run", false, "Show the patch without writing the configuration")
	cmdBootstrap.Flags().BoolVar(&flagBootstrap.Sed, "sed", false, "Print the patch as the sed expression used at build time and exit")
}

func runBootstrap(cmd *cobra.Command, _ []string) {
	r := loadRecipe()

	if flagBootstrap.Sed {
		fmt.Fprintln(cmd.OutOrStdout(), bootstrap.SedExpression(r.Bootstrap.Patch))
		return
	}

	n := node.FromRecipe(r, logger)
	if flagBootstrap.Node != "" {
		n.Path = flagBootstrap.Node
	}

	b := bootstrap.New(r, n, logger)
	b.DryRun = flagBootstrap.DryRun
	if flagBootstrap.WorkDir != "" {
		b.WorkDir = flagBootstrap.WorkDir
	}

	ctx, cancel := signalContext()
	defer cancel()
	res, err := b.Ensure(ctx)
	Check(err)

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s: %s\n", res.Path, res.State)
	if res.Diff != "" {
		fmt.Fprint(w, res.Diff)
	}
}
