// Copyright (c) 2025 Wingman
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"wingman/cli/internal/config"
	"wingman/cli/internal/fieldref"
	"wingman/cli/internal/localorg"
	"wingman/cli/internal/logging"
	"wingman/cli/internal/progress"
	"wingman/cli/internal/replace"
	"wingman/cli/internal/runlog"
	"wingman/cli/internal/sf"
	"wingman/cli/internal/xdg"

	"atomicgo.dev/cursor"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	replaceOldField        string
	replaceNewField        string
	replaceBatchSize       int
	replaceDryRun          bool
	replaceReportsPath     string
	replaceContinueOnError bool
	replaceResume          bool
)

// replaceFieldsCmd rewrites references to one field across all reports
// in the target org, batch by batch, backing up every original before
// deploying the rewritten definitions.
var replaceFieldsCmd = &cobra.Command{
	Use:   "replace-fields",
	Short: "Replace references to one field with another across all reports",
	Long: `The replace-fields command locates every report in the target org,
retrieves report definitions in batches, replaces exact references to
the old field with the new field, backs up each original definition,
and deploys the rewritten reports back to the org.

With --dry-run no org changes are made; the command prints a unified
diff of every change it would make. With --reports-path the command
operates on a local directory of .report-meta.xml files instead of an
org. Interrupting a run is safe: the in-flight batch finishes before
the run stops, and --resume skips batches a previous run confirmed.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		oldRef, err := fieldref.Parse(replaceOldField)
		if err != nil {
			return err
		}
		newRef, err := fieldref.Parse(replaceNewField)
		if err != nil {
			return err
		}
		batchSize := replaceBatchSize
		if batchSize == 0 {
			batchSize = cfg.BatchSize
		}
		plan, err := replace.NewPlan(oldRef, newRef, replaceDryRun, batchSize)
		if err != nil {
			return err
		}

		// Resolve the connector: a local reports directory or the org
		// reached through the sf CLI.
		var conn replace.Connector
		orgLabel := ""
		var backupBase string
		if replaceReportsPath != "" {
			local, err := localorg.New(replaceReportsPath)
			if err != nil {
				return err
			}
			conn = local
			orgLabel = "local:" + replaceReportsPath
			backupBase = sf.NewLayout(".").BackupDir()
		} else {
			org, err := resolveOrg(cfg)
			if err != nil {
				return err
			}
			orgLabel = org
			client := sf.NewClient(org, ".")
			if err := client.ValidateOrg(cmd.Context()); err != nil {
				logging.PresentOrgError(err)
				return err
			}
			layout := sf.NewLayout(".")
			if err := layout.Ensure(); err != nil {
				return err
			}
			conn = sf.NewOrg(client, layout)
			backupBase = layout.BackupDir()
		}

		pterm.Println()
		pterm.Println(pterm.NewStyle(pterm.FgLightCyan).Sprint("→ Target:      ") + pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint(orgLabel))
		pterm.Println(pterm.NewStyle(pterm.FgLightCyan).Sprint("→ Replacement: ") + pterm.NewStyle(pterm.FgLightBlue).Sprintf("%s → %s", plan.OldField, plan.NewField))
		if plan.DryRun {
			pterm.Println(pterm.NewStyle(pterm.FgYellow).Sprint("→ Mode:        dry run (no org changes)"))
		}
		pterm.Println()

		stateDir, err := xdg.StateDir()
		if err != nil {
			return err
		}
		store, err := runlog.Open(stateDir)
		if err != nil {
			return err
		}
		defer store.Close()

		opts := replace.DefaultOptions()
		opts.Workers = cfg.Workers
		opts.ContinueOnError = replaceContinueOnError
		if replaceResume && !plan.DryRun {
			prevRun, confirmed, err := store.ConfirmedBatches(orgLabel, plan.OldField.Qualified(), plan.NewField.Qualified())
			if err != nil {
				return err
			}
			if len(confirmed) > 0 {
				opts.SkipConfirmed = confirmed
				pterm.Info.Printf("Resuming: %d batch(es) confirmed by run %s will be skipped\n", len(confirmed), prevRun)
			}
		}

		runStamp := time.Now().Format("20060102-150405")
		backups := replace.NewBackupManager(backupBase, runStamp)
		changes := replace.NewChangeReport(plan)

		runID := uuid.NewString()
		startAt := time.Now()
		if err := store.BeginRun(runlog.Run{
			ID:        runID,
			Org:       orgLabel,
			OldField:  plan.OldField.Qualified(),
			NewField:  plan.NewField.Qualified(),
			DryRun:    plan.DryRun,
			StartedAt: startAt,
		}); err != nil {
			return err
		}

		// Ctrl-C cancels between batches; the in-flight batch finishes.
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// Progress area with braille spinner frames, redrawn on a ticker
		// while the orchestrator reports batch lifecycle through hooks.
		frames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
		frameIdx := 0
		var area *pterm.AreaPrinter
		var areaMu sync.Mutex
		var state *progress.State
		var spinWG sync.WaitGroup
		spinStop := make(chan struct{})

		updateArea := func() {
			areaMu.Lock()
			defer areaMu.Unlock()
			if area == nil || state == nil {
				return
			}
			lines := state.Lines(frames[frameIdx%len(frames)])
			if len(lines) == 0 {
				return
			}
			text := lines[0]
			for _, l := range lines[1:] {
				text += "\n" + l
			}
			area.Update(text)
		}
		startArea := func(total int) {
			areaMu.Lock()
			if area != nil {
				areaMu.Unlock()
				return
			}
			cursor.Hide()
			area, _ = pterm.DefaultArea.WithRemoveWhenDone(true).Start()
			state = progress.NewState(total)
			areaMu.Unlock()
			spinWG.Add(1)
			go func() {
				defer spinWG.Done()
				t := time.NewTicker(120 * time.Millisecond)
				defer t.Stop()
				for {
					select {
					case <-t.C:
						areaMu.Lock()
						frameIdx++
						areaMu.Unlock()
						updateArea()
					case <-spinStop:
						return
					}
				}
			}()
		}
		stopArea := func() {
			areaMu.Lock()
			if area == nil {
				areaMu.Unlock()
				return
			}
			a := area
			area = nil
			areaMu.Unlock()
			close(spinStop)
			spinWG.Wait()
			a.Stop()
			cursor.Show()
		}
		defer stopArea()

		totalBatches := 0
		prevReplaced := 0
		hooks := replace.Hooks{
			RunPlanned: func(batches []*replace.Batch) {
				totalBatches = len(batches)
			},
			BatchStarted: func(b *replace.Batch) {
				startArea(totalBatches)
				state.Start(b.ID, len(b.Reports))
				state.SetStage(b.ID, "retrieving")
				updateArea()
			},
			BatchAdvanced: func(b *replace.Batch) {
				state.SetStage(b.ID, stageFor(b.Status, plan.DryRun))
				updateArea()
			},
			BatchFinished: func(b *replace.Batch) {
				switch b.Status {
				case replace.StatusFailed:
					detail := ""
					if b.Err != nil {
						detail = logging.Mask(b.Err.Error())
					}
					state.Fail(b.ID, detail)
				default:
					state.Complete(b.ID)
				}
				updateArea()
				replaced := 0
				for _, e := range changes.Entries() {
					if e.Outcome == replace.OutcomeReplaced {
						replaced++
					}
				}
				batchReplaced := replaced - prevReplaced
				prevReplaced = replaced
				_ = store.RecordBatch(runlog.BatchRecord{
					RunID:      runID,
					BatchID:    b.ID,
					Status:     b.Status.String(),
					Reports:    len(b.Reports),
					Replaced:   batchReplaced,
					Detail:     batchDetail(b),
					RecordedAt: time.Now(),
				})
			},
		}

		orch := replace.NewOrchestrator(conn, backups, changes, opts, hooks)
		summary, runErr := orch.Run(ctx, plan)
		stopArea()

		if runErr == nil && totalBatches == 0 {
			pterm.Info.Println("No reports found; nothing to do.")
			_ = store.FinishRun(runID, "succeeded", time.Now())
			return nil
		}

		outcome := "succeeded"
		if runErr != nil {
			outcome = "failed"
			if summary != nil && summary.Halted && summary.Failed == 0 {
				outcome = "interrupted"
			}
		}
		_ = store.FinishRun(runID, outcome, time.Now())

		elapsed := time.Since(startAt).Round(time.Millisecond)
		if plan.DryRun {
			changes.RenderDryRun()
		}
		changes.RenderSummary(verbose)
		if summary != nil {
			pterm.Printf("Batches: %d confirmed, %d failed, %d skipped (resumed), %d not attempted\n",
				summary.Confirmed, summary.Failed, summary.Resumed, summary.NotAttempted)
		}
		if backups.Count() > 0 {
			pterm.Printf("Backups: %d report(s) under %s\n", backups.Count(), backups.Root())
		}
		pterm.Printf("Duration: %s\n", elapsed)

		if runErr != nil {
			logging.PresentOrgError(runErr)
			return runErr
		}
		return nil
	},
}

// stageFor maps a batch status to the activity shown while the next
// stage of the pipeline runs.
func stageFor(s replace.Status, dryRun bool) string {
	switch s {
	case replace.StatusRetrieved:
		return "rewriting"
	case replace.StatusRewritten:
		if dryRun {
			return "reporting"
		}
		return "backing up"
	case replace.StatusBackedUp:
		return "deploying"
	case replace.StatusDeployed:
		return "confirming"
	default:
		return s.String()
	}
}

// batchDetail renders a batch's failure reason for the run log, empty
// for non-failed batches.
func batchDetail(b *replace.Batch) string {
	if b.Err == nil {
		return ""
	}
	return logging.Mask(b.Err.Error())
}

func init() {
	rootCmd.AddCommand(replaceFieldsCmd)
	replaceFieldsCmd.Flags().StringVar(&replaceOldField, "old-field", "", "Field reference to replace, as Object.Field (required)")
	replaceFieldsCmd.Flags().StringVar(&replaceNewField, "new-field", "", "Replacement field reference, as Object.Field (required)")
	replaceFieldsCmd.Flags().IntVar(&replaceBatchSize, "batch-size", 0, "Reports per batch (default from config)")
	replaceFieldsCmd.Flags().BoolVar(&replaceDryRun, "dry-run", false, "Preview changes without touching the org")
	replaceFieldsCmd.Flags().StringVar(&replaceReportsPath, "reports-path", "", "Operate on a local directory of report files instead of an org")
	replaceFieldsCmd.Flags().BoolVar(&replaceContinueOnError, "continue-on-error", false, "Keep processing batches after one fails")
	replaceFieldsCmd.Flags().BoolVar(&replaceResume, "resume", false, "Skip batches confirmed by the previous run")
	_ = replaceFieldsCmd.MarkFlagRequired("old-field")
	_ = replaceFieldsCmd.MarkFlagRequired("new-field")
}
