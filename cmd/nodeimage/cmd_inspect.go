// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package main

import (
	"fmt"
	"os"
	"reflect"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	. "github.com/tishareyes/vcash/internal/cmdutil"
	"github.com/tishareyes/vcash/internal/docker"
	"github.com/tishareyes/vcash/internal/dockerfile"
	"github.com/tishareyes/vcash/internal/entry"
	"github.com/tishareyes/vcash/internal/surface"
)

var cmdInspect = &cobra.Command{
	Use:   "inspect <image>",
	Short: "Check an image against the recipe's surface and entrypoint",
	Args:  cobra.ExactArgs(1),
	Run:   inspect,
}

func init() {
	cmdMain.AddCommand(cmdInspect)
}

func inspect(cmd *cobra.Command, args []string) {
	r := loadRecipe()
	engine, err := docker.NewCLI(settings.Docker, logger)
	Check(err)

	ctx, cancel := signalContext()
	defer cancel()
	img, err := engine.InspectImage(ctx, args[0])
	Checkf(err, "inspect %s", args[0])

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Image:     %s (%s)\n", img.ID, humanize.Bytes(uint64(img.Size)))
	fmt.Fprintf(w, "Revision:  %s\n", labelOr(img, dockerfile.LabelRevision))
	fmt.Fprintf(w, "Artifact:  %s\n\n", labelOr(img, dockerfile.LabelArtifactDigest))

	ok := true
	err = surface.Check(r.Surface, img.Config.Surface())
	if err != nil {
		ok = false
		Verdict(w, false, "surface: %v", err)
	} else {
		Verdict(w, true, "surface: %d ports, volume %s", len(r.Surface.Ports), r.Surface.Volume)
	}

	ic := entry.ForImage(r)
	good := reflect.DeepEqual(ic.Entrypoint, img.Config.Entrypoint) && reflect.DeepEqual(ic.Cmd, img.Config.Cmd)
	ok = ok && good
	Verdict(w, good, "entrypoint: %q %q", img.Config.Entrypoint, img.Config.Cmd)

	good = img.Config.WorkingDir == r.Bootstrap.WorkDir
	ok = ok && good
	Verdict(w, good, "working dir: %s", img.Config.WorkingDir)

	if !ok {
		os.Exit(1)
	}
}

func labelOr(img *docker.Image, label string) string {
	if v := img.Config.Labels[label]; v != "" {
		return v
	}
	return "unknown"
}
