// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package main

import (
	"github.com/spf13/cobra"
	"github.com/tishareyes/vcash/internal/surface"
)

var cmdSurface = &cobra.Command{
	Use:   "surface",
	Short: "Show the ports and volume the image declares",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		surface.WriteTable(cmd.OutOrStdout(), loadRecipe().Surface)
	},
}

func init() {
	cmdMain.AddCommand(cmdSurface)
}
