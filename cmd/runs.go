// Copyright (c) 2025 Wingman
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"
	"time"

	"wingman/cli/internal/runlog"
	"wingman/cli/internal/xdg"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var runsLimit int

// runsCmd lists recorded replacement runs from the run ledger. With
// --verbose it also shows per-batch outcomes for each run.
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded replacement runs",

	RunE: func(cmd *cobra.Command, args []string) error {
		stateDir, err := xdg.StateDir()
		if err != nil {
			return err
		}
		store, err := runlog.Open(stateDir)
		if err != nil {
			return err
		}
		defer store.Close()

		runs, err := store.ListRuns(runsLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			pterm.Info.Println("No runs recorded yet.")
			return nil
		}

		rows := pterm.TableData{{"Started", "Org", "Replacement", "Mode", "Outcome", "Run ID"}}
		for _, r := range runs {
			mode := "apply"
			if r.DryRun {
				mode = "dry-run"
			}
			outcome := r.Outcome
			if outcome == "" {
				outcome = "in progress"
			}
			rows = append(rows, []string{
				r.StartedAt.Local().Format(time.DateTime),
				r.Org,
				fmt.Sprintf("%s → %s", r.OldField, r.NewField),
				mode,
				outcome,
				r.ID,
			})
		}
		if err := pterm.DefaultTable.WithHasHeader().WithData(rows).Render(); err != nil {
			return err
		}

		if !verbose {
			return nil
		}
		for _, r := range runs {
			batches, err := store.Batches(r.ID)
			if err != nil {
				return err
			}
			if len(batches) == 0 {
				continue
			}
			pterm.Println()
			pterm.Println(pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprintf("Run %s", r.ID))
			batchRows := pterm.TableData{{"Batch", "Status", "Reports", "Replaced", "Detail"}}
			for _, b := range batches {
				batchRows = append(batchRows, []string{
					fmt.Sprint(b.BatchID),
					b.Status,
					fmt.Sprint(b.Reports),
					fmt.Sprint(b.Replaced),
					b.Detail,
				})
			}
			if err := pterm.DefaultTable.WithHasHeader().WithData(batchRows).Render(); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum number of runs to list")
}
