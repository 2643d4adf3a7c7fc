// Copyright (c) 2025 Wingman
// Licensed under the MIT License. See LICENSE file in the project root for details.

package replace

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/pterm/pterm"
)

// Outcome classifies how one report finished the run.
type Outcome string

const (
	// OutcomeReplaced means references were rewritten (or would be, in dry-run).
	OutcomeReplaced Outcome = "replaced"
	// OutcomeUnchanged means the report never referenced the old field.
	OutcomeUnchanged Outcome = "unchanged"
	// OutcomeSkipped means the definition was malformed and excluded from deploy.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeFailed means a batch-level failure stopped the report.
	OutcomeFailed Outcome = "failed"
)

// ChangeEntry is the per-report record accumulated into the run summary.
type ChangeEntry struct {
	ReportID           string
	FullName           string
	ReferencesFound    int
	ReferencesReplaced int
	Outcome            Outcome
	Detail             string
	// Diff holds the unified diff of the intended change; populated in
	// dry-run mode for the preview listing.
	Diff string
}

// Summary is the run-level roll-up of change entries.
type Summary struct {
	Scanned  int
	Matched  int
	Replaced int
	Skipped  int
	Failed   int
}

// ChangeReport accumulates per-report outcomes. It is the only engine
// component that produces user-facing output; workers on a batch share
// it, so updates serialize through a mutex.
type ChangeReport struct {
	plan Plan

	mu      sync.Mutex
	entries []ChangeEntry
}

// NewChangeReport creates an empty change report for a run.
func NewChangeReport(plan Plan) *ChangeReport {
	return &ChangeReport{plan: plan}
}

// Record adds one per-report entry.
func (c *ChangeReport) Record(e ChangeEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, e)
}

// Entries returns a copy of the accumulated entries.
func (c *ChangeReport) Entries() []ChangeEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ChangeEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Summary rolls the entries up into run-level counts.
func (c *ChangeReport) Summary() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	var s Summary
	for _, e := range c.entries {
		s.Scanned++
		if e.ReferencesFound > 0 {
			s.Matched++
		}
		switch e.Outcome {
		case OutcomeReplaced:
			s.Replaced++
		case OutcomeSkipped:
			s.Skipped++
		case OutcomeFailed:
			s.Failed++
		}
	}
	return s
}

// UnifiedDiff renders the intended change for one report as a unified
// diff, for dry-run previews.
func UnifiedDiff(fullName, before, after string) (string, error) {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: fullName,
		ToFile:   fullName + " (rewritten)",
		Context:  3,
	}
	return difflib.GetUnifiedDiffString(diff)
}

// RenderDryRun prints the full listing of intended changes.
func (c *ChangeReport) RenderDryRun() {
	entries := c.Entries()
	pterm.Println()
	pterm.Println(pterm.NewStyle(pterm.FgYellow, pterm.Bold).Sprintf(
		"DRY RUN: would replace %s with %s", c.plan.OldField, c.plan.NewField))
	changed := 0
	for _, e := range entries {
		if e.Outcome != OutcomeReplaced {
			continue
		}
		changed++
		pterm.Println()
		pterm.Println(pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprintf(
			"%s (%d reference(s))", e.FullName, e.ReferencesFound))
		if strings.TrimSpace(e.Diff) != "" {
			pterm.Println(e.Diff)
		}
	}
	if changed == 0 {
		pterm.Println()
		pterm.Println("No report references the old field; nothing to change.")
	}
}

// RenderSummary prints the final run summary box and, with verbose, a
// per-report table.
func (c *ChangeReport) RenderSummary(verbose bool) {
	s := c.Summary()
	title := pterm.NewStyle(pterm.FgGreen, pterm.Bold).Sprint("Replacement Summary")
	if s.Failed > 0 {
		title = pterm.NewStyle(pterm.FgRed, pterm.Bold).Sprint("Replacement Summary")
	}
	mode := ""
	if c.plan.DryRun {
		mode = "\nMode: dry run (no org changes)"
	}
	details := fmt.Sprintf("Reports scanned: %d\nMatched: %d\nReplaced: %d\nSkipped (malformed): %d\nFailed: %d%s",
		s.Scanned, s.Matched, s.Replaced, s.Skipped, s.Failed, mode)
	box := pterm.DefaultBox.WithTitle(title).WithTopPadding(1).WithBottomPadding(1).WithLeftPadding(1).WithRightPadding(1).Sprint(details)
	pterm.Println(box)

	if !verbose {
		return
	}
	rows := pterm.TableData{{"Report", "Found", "Replaced", "Outcome"}}
	for _, e := range c.Entries() {
		rows = append(rows, []string{
			e.FullName,
			fmt.Sprint(e.ReferencesFound),
			fmt.Sprint(e.ReferencesReplaced),
			string(e.Outcome),
		})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}
