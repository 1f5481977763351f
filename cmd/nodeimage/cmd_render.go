// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package main

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	. "github.com/tishareyes/vcash/internal/cmdutil"
	"github.com/tishareyes/vcash/internal/dockerfile"
)

var cmdRender = &cobra.Command{
	Use:   "render",
	Short: "Render the Dockerfile and .dockerignore for the recipe",
	Args:  cobra.NoArgs,
	Run:   render,
}

var flagRender struct {
	Out    string
	Stdout bool
}

func init() {
	cmdMain.AddCommand(cmdRender)
	cmdRender.Flags().StringVarP(&flagRender.Out, "out", "o", ".", "Directory to write Dockerfile and .dockerignore to")
	cmdRender.Flags().BoolVar(&flagRender.Stdout, "stdout", false, "Print the Dockerfile instead of writing files")
}

func render(cmd *cobra.Command, _ []string) {
	r := loadRecipe()

	if flagRender.Stdout {
		Check(dockerfile.Render(cmd.OutOrStdout(), r))
		return
	}

	Check(os.MkdirAll(flagRender.Out, 0755))

	buf := new(bytes.Buffer)
	Check(dockerfile.Render(buf, r))
	Check(os.WriteFile(filepath.Join(flagRender.Out, "Dockerfile"), buf.Bytes(), 0644))

	buf.Reset()
	Check(dockerfile.RenderIgnore(buf, r))
	Check(os.WriteFile(filepath.Join(flagRender.Out, ".dockerignore"), buf.Bytes(), 0644))

	logger.Info("Rendered build", "dir", flagRender.Out, "recipe", r.Name, "mode", r.Bootstrap.Mode)
}
