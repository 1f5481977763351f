// Copyright 2026 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package main

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	. "github.com/tishareyes/vcash/internal/cmdutil"
	"github.com/tishareyes/vcash/internal/records"
)

var cmdHistory = &cobra.Command{
	Use:   "history",
	Short: "List past builds, newest first",
	Args:  cobra.NoArgs,
	Run:   history,
}

var flagHistory struct {
	Limit int
}

func init() {
	cmdMain.AddCommand(cmdHistory)
	cmdHistory.Flags().IntVarP(&flagHistory.Limit, "limit", "n", 20, "Number of builds to show, 0 for all")
}

func history(cmd *cobra.Command, _ []string) {
	ledger, err := records.Open(settings.Ledger)
	Check(err)
	defer ledger.Close()

	builds, err := ledger.List(flagHistory.Limit)
	Check(err)

	tw := tablewriter.NewWriter(cmd.OutOrStdout())
	tw.SetHeader([]string{"Build", "Started", "Image", "Revision", "Artifact", "Duration", "Status"})
	tw.SetAutoFormatHeaders(false)
	tw.SetBorder(false)
	for _, b := range builds {
		artifact := "-"
		if b.ArtifactSize > 0 {
			artifact = humanize.Bytes(uint64(b.ArtifactSize))
		}
		tw.Append([]string{
			b.ID.String()[:8],
			humanize.Time(b.Started),
			b.Image,
			shortRevision(b.Revision),
			artifact,
			b.Duration.Round(time.Second).String(),
			b.Status.String(),
		})
	}
	tw.Render()
}

func shortRevision(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}
