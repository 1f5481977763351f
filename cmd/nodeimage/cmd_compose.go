// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package main

import (
	"os"

	"github.com/spf13/cobra"
	. "github.com/tishareyes/vcash/internal/cmdutil"
	"github.com/tishareyes/vcash/internal/compose"
)

var cmdCompose = &cobra.Command{
	Use:   "compose [flags] [-- command...]",
	Short: "Write a docker-compose file that runs the image",
	Long:  "Write a docker-compose file that runs the image. Arguments after -- replace the node's default subcommand.",
	Run:   writeCompose,
}

var flagCompose struct {
	Out           string
	Image         string
	ContainerName string
	Restart       string
	Volume        string
}

func init() {
	cmdMain.AddCommand(cmdCompose)
	cmdCompose.Flags().StringVarP(&flagCompose.Out, "out", "o", "docker-compose.yml", "Output file, - for stdout")
	cmdCompose.Flags().StringVar(&flagCompose.Image, "image", "", "Image reference (default: <recipe>:<network>)")
	cmdCompose.Flags().StringVar(&flagCompose.ContainerName, "container-name", "", "Container name")
	cmdCompose.Flags().StringVar(&flagCompose.Restart, "restart", "unless-stopped", "Restart policy")
	cmdCompose.Flags().StringVar(&flagCompose.Volume, "volume", "", "Named volume for the node's state (default: <recipe>-data)")
}

func writeCompose(cmd *cobra.Command, args []string) {
	r := loadRecipe()

	opts := compose.Options{
		Image:         flagCompose.Image,
		ContainerName: flagCompose.ContainerName,
		Command:       args,
		Restart:       flagCompose.Restart,
		Volume:        flagCompose.Volume,
	}
	if opts.Image == "" {
		opts.Image = r.Name + ":" + r.Network.Name
	}

	if flagCompose.Out == "-" {
		Check(compose.Write(cmd.OutOrStdout(), r, opts))
		return
	}

	f, err := os.Create(flagCompose.Out)
	Check(err)
	defer f.Close()
	Check(compose.Write(f, r, opts))
	logger.Info("Wrote compose file", "file", flagCompose.Out, "volume", opts.VolumeName(r))
}
