// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tishareyes/vcash/cmd/internal"
	. "github.com/tishareyes/vcash/internal/cmdutil"
	"github.com/tishareyes/vcash/internal/docker"
	"github.com/tishareyes/vcash/internal/pipeline"
	"github.com/tishareyes/vcash/internal/records"
)

var cmdBuild = &cobra.Command{
	Use:   "build",
	Short: "Build the node image: provision, compile, assemble, verify",
	Args:  cobra.NoArgs,
	Run:   build,
}

var flagBuild struct {
	Source        string
	Tag           string
	WorkDir       string
	EntryBinary   string
	BuildArgs     map[string]string
	BuildArgsFile string
	DryRun        bool
	JSON          bool
}

func init() {
	cmdMain.AddCommand(cmdBuild)
	cmdBuild.Flags().StringVarP(&flagBuild.Source, "source", "s", ".", "Source tree of the node")
	cmdBuild.Flags().StringVarP(&flagBuild.Tag, "tag", "t", "", "Image tag (default: <recipe>:<network>)")
	cmdBuild.Flags().StringVar(&flagBuild.WorkDir, "work-dir", "", "Directory to render the build into (default: a temporary directory)")
	cmdBuild.Flags().StringVar(&flagBuild.EntryBinary, "entry-binary", "", "nodeimage executable to install in the image (default: this executable)")
	cmdBuild.Flags().Var(internal.KeyValueFlag{Value: &flagBuild.BuildArgs}, "build-arg", "Build argument passed to every stage")
	cmdBuild.Flags().StringVar(&flagBuild.BuildArgsFile, "build-args-file", "", "Dotenv file of build arguments")
	cmdBuild.Flags().BoolVar(&flagBuild.DryRun, "dry-run", false, "Render the build without running it")
	cmdBuild.Flags().BoolVar(&flagBuild.JSON, "json", false, "Print the build report as JSON")
}

func build(cmd *cobra.Command, _ []string) {
	r := loadRecipe()

	args := map[string]string{}
	if flagBuild.BuildArgsFile != "" {
		env, err := godotenv.Read(flagBuild.BuildArgsFile)
		Checkf(err, "read build arguments")
		for k, v := range env {
			args[k] = v
		}
	}
	for k, v := range flagBuild.BuildArgs {
		args[k] = v
	}

	engine, err := docker.NewCLI(settings.Docker, logger)
	Check(err)

	p := pipeline.New(r, engine, logger, pipeline.Options{
		SourceDir:   flagBuild.Source,
		WorkDir:     flagBuild.WorkDir,
		Tag:         flagBuild.Tag,
		EntryBinary: flagBuild.EntryBinary,
		BuildArgs:   args,
		DryRun:      flagBuild.DryRun,
	})

	if !flagBuild.DryRun {
		ledger, err := records.Open(settings.Ledger)
		if err != nil {
			Warnf("Build history is disabled: %v", err)
		} else {
			defer ledger.Close()
			p.Ledger = ledger
		}
		if settings.MetricsFile != "" {
			p.Metrics = pipeline.NewMetrics()
		}
	}

	ctx, cancel := signalContext()
	defer cancel()
	report, err := p.Run(ctx)

	if p.Metrics != nil {
		if err := p.Metrics.WriteTo(settings.MetricsFile); err != nil {
			Warnf("%v", err)
		}
	}

	if flagBuild.JSON {
		b, err := json.MarshalIndent(report, "", "  ")
		Check(err)
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
	} else {
		printReport(cmd, report)
	}
	Check(err)
}

func printReport(cmd *cobra.Command, report *pipeline.Report) {
	w := cmd.OutOrStdout()
	if flagBuild.DryRun {
		fmt.Fprintf(w, "Rendered %s into %s\n", report.Image, report.WorkDir)
		return
	}

	for _, ph := range report.Phases {
		Verdict(w, ph.Status.Success(), "%-10s %s", ph.Phase, ph.Duration.Round(time.Millisecond))
	}
	if report.Artifact != nil {
		fmt.Fprintf(w, "Artifact:  %s (%s, %s)\n", report.Artifact.Path, report.Artifact.Digest, humanize.Bytes(uint64(report.Artifact.Size)))
	}
	fmt.Fprintf(w, "Revision:  %s\n", report.Revision)
	if report.Status.Success() {
		fmt.Fprintf(w, "Image:     %s (%s)\n", report.Image, humanize.Bytes(uint64(report.ImageSize)))
	}
	fmt.Fprintf(w, "Build:     %s %s in %s\n", report.ID, report.Status, report.Duration.Round(time.Millisecond))
}
