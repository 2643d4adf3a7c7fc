// Copyright (c) 2025 Wingman
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"
	"os"
	"time"

	"wingman/cli/internal/config"
	"wingman/cli/internal/logging"
	"wingman/cli/internal/replace"
	"wingman/cli/internal/sf"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	pullNameContains string
	pullBatchSize    int
)

// pullReportsCmd retrieves report definitions from the org into the
// local staging tree without modifying anything.
var pullReportsCmd = &cobra.Command{
	Use:   "pull-reports",
	Short: "Retrieve report definitions from the org without changing them",
	Long: `The pull-reports command retrieves report definitions from the target
org into the local force-app staging tree, batch by batch, without
rewriting or deploying anything. Use it to inspect report XML locally
or to seed a directory for replace-fields --reports-path.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		org, err := resolveOrg(cfg)
		if err != nil {
			return err
		}
		batchSize := pullBatchSize
		if batchSize == 0 {
			batchSize = cfg.BatchSize
		}

		client := sf.NewClient(org, ".")
		if err := client.ValidateOrg(cmd.Context()); err != nil {
			logging.PresentOrgError(err)
			return err
		}
		layout := sf.NewLayout(".")
		if err := layout.Ensure(); err != nil {
			return err
		}
		conn := sf.NewOrg(client, layout)

		stopSpin := startInlineSpinner(os.Stderr, "listing reports", []string{"|", "/", "-", "\\"}, 120*time.Millisecond)
		reports, err := conn.ListReportsMatching(cmd.Context(), pullNameContains)
		stopSpin()
		if err != nil {
			logging.PresentOrgError(err)
			return err
		}
		if len(reports) == 0 {
			pterm.Info.Println("No reports matched.")
			return nil
		}
		pterm.Printf("Found %d report(s)\n", len(reports))

		startAt := time.Now()
		batches := replace.Partition(reports, batchSize)
		retrieved := 0
		for _, b := range batches {
			stop := startInlineSpinner(os.Stderr,
				fmt.Sprintf("retrieving batch %d/%d (%d reports)", b.ID, len(batches), len(b.Reports)),
				[]string{"|", "/", "-", "\\"}, 120*time.Millisecond)
			got, err := conn.Retrieve(cmd.Context(), b.Reports)
			stop()
			if err != nil {
				pterm.Printf("✗ batch %d/%d failed\n", b.ID, len(batches))
				logging.PresentOrgError(err)
				return err
			}
			retrieved += len(got)
			pterm.Printf("✓ batch %d/%d retrieved\n", b.ID, len(batches))
		}

		elapsed := time.Since(startAt).Round(time.Millisecond)
		title := pterm.NewStyle(pterm.FgGreen, pterm.Bold).Sprint("Pull Completed")
		details := fmt.Sprintf("Reports retrieved: %d\nStaged under: %s\nDuration: %s",
			retrieved, layout.ReportsDir(), elapsed)
		pterm.Println(pterm.DefaultBox.WithTitle(title).WithTopPadding(1).WithBottomPadding(1).WithLeftPadding(1).WithRightPadding(1).Sprint(details))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pullReportsCmd)
	pullReportsCmd.Flags().StringVar(&pullNameContains, "name-contains", "", "Only retrieve reports whose name contains this text")
	pullReportsCmd.Flags().IntVar(&pullBatchSize, "batch-size", 0, "Reports per retrieve batch (default from config)")
}
