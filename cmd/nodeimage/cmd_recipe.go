// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package main

import (
	"github.com/spf13/cobra"
	"github.com/tishareyes/vcash/cmd/internal"
	. "github.com/tishareyes/vcash/internal/cmdutil"
	"github.com/tishareyes/vcash/pkg/recipe"
)

var cmdRecipe = &cobra.Command{
	Use:   "recipe",
	Short: "Print the recipe",
	Args:  cobra.NoArgs,
	Run:   printRecipe,
}

var flagRecipe = struct {
	Format string
	Out    string
}{Format: "toml"}

func init() {
	cmdMain.AddCommand(cmdRecipe)
	cmdRecipe.Flags().Var(internal.EnumFlag{Value: &flagRecipe.Format, Allowed: []string{"toml", "yaml", "json"}}, "format", "Output format")
	cmdRecipe.Flags().StringVarP(&flagRecipe.Out, "out", "o", "", "Write the recipe to a file instead; the extension selects the format")
}

func printRecipe(cmd *cobra.Command, _ []string) {
	r := loadRecipe()

	if flagRecipe.Out != "" {
		Check(r.SaveTo(flagRecipe.Out))
		return
	}

	enc, err := recipe.Encoder(flagRecipe.Format)
	Check(err)
	b, err := r.Marshal(enc)
	Check(err)
	_, err = cmd.OutOrStdout().Write(b)
	Check(err)
}
