// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/tishareyes/vcash/internal/bootstrap"
	. "github.com/tishareyes/vcash/internal/cmdutil"
	"github.com/tishareyes/vcash/internal/entry"
	"github.com/tishareyes/vcash/internal/node"
)

var cmdEntry = &cobra.Command{
	Use:   "entry [flags] -- [subcommand...]",
	Short: "Container entrypoint: bootstrap the node configuration, then run the node",
	Long: "Container entrypoint. Generates and patches the node configuration if the " +
		"volume holds none, then replaces itself with the node. Arguments replace " +
		"the default subcommand; the node binary and network flag are fixed.",
	Run: runEntry,
}

func init() {
	cmdMain.AddCommand(cmdEntry)
}

func runEntry(_ *cobra.Command, args []string) {
	r := loadRecipe()

	ctx, cancel := signalContext()
	_, err := bootstrap.New(r, node.FromRecipe(r, logger), logger).Ensure(ctx)
	cancel()
	Check(err)

	d := entry.New(r)
	logger.Info("Starting node", "command", d.Command(args))
	Check(d.Exec(args, os.Environ()))
}
