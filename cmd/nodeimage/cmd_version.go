// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tishareyes/vcash"
)

var cmdVersion = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run:   showVersion,
}

var flagVersion struct {
	VersionOnly  bool
	KnownVersion bool
}

func init() {
	cmdMain.AddCommand(cmdVersion)

	cmdVersion.Flags().BoolVar(&flagVersion.VersionOnly, "version-only", false, "Only print out the version number")
	cmdVersion.Flags().BoolVar(&flagVersion.KnownVersion, "known-version", false, "Return 1 if the version number is unknown")
}

func showVersion(cmd *cobra.Command, _ []string) {
	if flagVersion.KnownVersion && !vcash.IsVersionKnown() {
		defer os.Exit(1)
	}

	w := cmd.OutOrStdout()
	if flagVersion.VersionOnly {
		fmt.Fprintln(w, vcash.Version)
		return
	}

	if vcash.Commit != "" {
		fmt.Fprintf(w, "nodeimage %s (%s)\n", vcash.Version, vcash.Commit)
		return
	}
	fmt.Fprintf(w, "nodeimage %s\n", vcash.Version)
}
