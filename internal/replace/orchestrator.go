// Copyright (c) 2025 Wingman
// Licensed under the MIT License. See LICENSE file in the project root for details.

package replace

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	apperrors "wingman/cli/internal/errors"
)

// Options tune the orchestrator's concurrency and failure policy.
type Options struct {
	// Workers bounds the per-batch rewrite pool.
	Workers int
	// MaxAttempts bounds retries of transient retrieve/deploy failures.
	MaxAttempts int
	// RetryBackoff is the initial backoff; it doubles per attempt.
	RetryBackoff time.Duration
	// CallTimeout applies to each individual connector call.
	CallTimeout time.Duration
	// ContinueOnError keeps processing batches after one fails.
	ContinueOnError bool
	// SkipConfirmed lists batch ids a prior run already confirmed.
	SkipConfirmed map[int]bool
}

// DefaultOptions returns the orchestrator defaults: a small rewrite
// pool, three attempts with exponential backoff, and halt-on-failure.
func DefaultOptions() Options {
	return Options{
		Workers:      4,
		MaxAttempts:  3,
		RetryBackoff: 2 * time.Second,
		CallTimeout:  5 * time.Minute,
	}
}

// Hooks let the caller observe batch lifecycle without the engine
// producing output itself.
type Hooks struct {
	RunPlanned   func(batches []*Batch)
	BatchStarted func(b *Batch)
	// BatchAdvanced fires on every non-terminal status transition of an
	// in-flight batch.
	BatchAdvanced func(b *Batch)
	BatchFinished func(b *Batch)
}

// RunSummary is the operator-facing result of a run: which batches
// confirmed, which failed, and which were never attempted, so a rerun
// can target only the unconfirmed remainder.
type RunSummary struct {
	Batches      []*Batch
	Confirmed    int
	Failed       int
	Resumed      int
	NotAttempted int
	Halted       bool
}

// Orchestrator drives the end-to-end pipeline in bounded-size batches,
// owning the run's state machine and failure policy. Batches run
// sequentially; a batch reaches a terminal state before the next
// begins, so the confirmed/failed boundary is always unambiguous.
type Orchestrator struct {
	conn    Connector
	backups *BackupManager
	changes *ChangeReport
	opts    Options
	hooks   Hooks
}

// NewOrchestrator wires the engine together.
func NewOrchestrator(conn Connector, backups *BackupManager, changes *ChangeReport, opts Options, hooks Hooks) *Orchestrator {
	if opts.Workers <= 0 {
		opts.Workers = DefaultOptions().Workers
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultOptions().MaxAttempts
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = DefaultOptions().RetryBackoff
	}
	return &Orchestrator{
		conn:    conn,
		backups: backups,
		changes: changes,
		opts:    opts,
		hooks:   hooks,
	}
}

// Run executes a replacement plan. Auth and not-found failures surface
// before any batching; afterwards each batch runs to a terminal state.
// Cancellation is honored between batches only: an in-flight batch
// always finishes (confirmed or failed) so the org is never left with
// a deployed-but-unbacked-up report.
func (o *Orchestrator) Run(ctx context.Context, plan Plan) (*RunSummary, error) {
	candidates, err := NewLocator(o.conn).Candidates(ctx, plan.OldField)
	if err != nil {
		return nil, err
	}

	batches := Partition(candidates, plan.BatchSize)
	summary := &RunSummary{Batches: batches}
	if o.hooks.RunPlanned != nil {
		o.hooks.RunPlanned(batches)
	}

	for i, b := range batches {
		if ctx.Err() != nil {
			summary.Halted = true
			summary.NotAttempted = len(batches) - i
			break
		}
		if o.opts.SkipConfirmed[b.ID] {
			b.Status = StatusConfirmed
			b.Resumed = true
			summary.Resumed++
			summary.Confirmed++
			continue
		}

		if o.hooks.BatchStarted != nil {
			o.hooks.BatchStarted(b)
		}
		// Detach from run cancellation: the batch must reach a terminal
		// state even if the user interrupts mid-batch.
		o.processBatch(context.WithoutCancel(ctx), b, plan)
		if o.hooks.BatchFinished != nil {
			o.hooks.BatchFinished(b)
		}

		switch b.Status {
		case StatusConfirmed:
			summary.Confirmed++
		case StatusFailed:
			summary.Failed++
			if !o.opts.ContinueOnError {
				summary.Halted = true
				summary.NotAttempted = len(batches) - i - 1
				return summary, fmt.Errorf("batch %d failed: %w", b.ID, b.Err)
			}
		}
	}

	if summary.Failed > 0 {
		return summary, fmt.Errorf("%d batch(es) failed", summary.Failed)
	}
	if summary.Halted {
		return summary, context.Canceled
	}
	return summary, nil
}

// processBatch walks one batch through the state machine to a terminal
// state. Retrieval failures fail the whole batch; malformed reports are
// recorded per-report and excluded from deploy while the batch
// continues.
func (o *Orchestrator) processBatch(ctx context.Context, b *Batch, plan Plan) {
	retrieved, err := withRetry(ctx, o.opts, func(cctx context.Context) ([]ReportDescriptor, error) {
		return o.conn.Retrieve(cctx, b.Reports)
	})
	if err != nil {
		o.recordBatchFailure(b, "retrieve failed")
		b.fail(fmt.Errorf("retrieve: %w", err))
		return
	}
	b.Reports = retrieved
	o.advance(b, StatusRetrieved)

	rewritten := o.rewriteAll(b.Reports, plan)
	o.advance(b, StatusRewritten)

	if plan.DryRun {
		for _, rw := range rewritten {
			o.changes.Record(rw.entry(plan))
		}
		b.Status = StatusDryRunReported
		return
	}

	// Every report in the batch is snapshotted before any of them may
	// be mutated remotely.
	var deployable []ReportDescriptor
	for _, rw := range rewritten {
		if _, err := o.backups.Snapshot(rw.original); err != nil {
			o.recordBatchFailure(b, "backup failed")
			b.fail(fmt.Errorf("backup %s: %w", rw.original.FullName, err))
			return
		}
		if rw.err == nil && rw.result.Replaced > 0 {
			updated := rw.original
			updated.RawDefinition = rw.result.Content
			deployable = append(deployable, updated)
		}
	}
	o.advance(b, StatusBackedUp)

	if len(deployable) == 0 {
		// Nothing referenced the old field; the batch confirms without
		// a deploy call.
		for _, rw := range rewritten {
			o.changes.Record(rw.entry(plan))
		}
		b.Status = StatusConfirmed
		return
	}

	res, err := withRetry(ctx, o.opts, func(cctx context.Context) (DeployResult, error) {
		return o.conn.Deploy(cctx, deployable)
	})
	if err != nil {
		o.recordBatchFailure(b, "deploy failed")
		b.fail(fmt.Errorf("deploy: %w", err))
		return
	}
	o.advance(b, StatusDeployed)
	if !res.Succeeded() {
		o.recordBatchFailure(b, res.ErrorDetail())
		b.fail(apperrors.New(apperrors.DeployValidationFailed, res.ErrorDetail()))
		return
	}

	for _, rw := range rewritten {
		o.changes.Record(rw.entry(plan))
	}
	b.Status = StatusConfirmed
}

// advance moves a batch to a non-terminal status and notifies the
// BatchAdvanced hook.
func (o *Orchestrator) advance(b *Batch, s Status) {
	b.Status = s
	if o.hooks.BatchAdvanced != nil {
		o.hooks.BatchAdvanced(b)
	}
}

// rewriteOutcome pairs a report with its rewrite result.
type rewriteOutcome struct {
	original ReportDescriptor
	result   RewriteResult
	err      error
}

// entry converts a rewrite outcome into a change entry.
func (rw rewriteOutcome) entry(plan Plan) ChangeEntry {
	e := ChangeEntry{
		ReportID: rw.original.ID,
		FullName: rw.original.FullName,
	}
	switch {
	case rw.err != nil:
		e.Outcome = OutcomeSkipped
		e.Detail = rw.err.Error()
	case rw.result.Replaced > 0:
		e.Outcome = OutcomeReplaced
		e.ReferencesFound = rw.result.Found
		e.ReferencesReplaced = rw.result.Replaced
		if plan.DryRun {
			if diff, err := UnifiedDiff(rw.original.FullName, rw.original.RawDefinition, rw.result.Content); err == nil {
				e.Diff = diff
			}
		}
	default:
		e.Outcome = OutcomeUnchanged
	}
	return e
}

// rewriteAll applies the rewriter across the batch with a bounded
// worker pool. Rewriting is side-effect-free, so only the indexed
// result slice is shared and each worker writes its own slot.
func (o *Orchestrator) rewriteAll(reports []ReportDescriptor, plan Plan) []rewriteOutcome {
	out := make([]rewriteOutcome, len(reports))
	jobs := make(chan int)
	var wg sync.WaitGroup

	workers := o.opts.Workers
	if workers > len(reports) {
		workers = len(reports)
	}
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				r := reports[i]
				res, err := Rewrite(r.RawDefinition, plan.OldField, plan.NewField)
				out[i] = rewriteOutcome{original: r, result: res, err: err}
			}
		}()
	}
	for i := range reports {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return out
}

// recordBatchFailure records a failed entry for every report in the
// batch so the summary accounts for them.
func (o *Orchestrator) recordBatchFailure(b *Batch, detail string) {
	for _, r := range b.Reports {
		o.changes.Record(ChangeEntry{
			ReportID: r.ID,
			FullName: r.FullName,
			Outcome:  OutcomeFailed,
			Detail:   detail,
		})
	}
}

// withRetry runs op with a per-call timeout, retrying transient
// failures with exponential backoff up to MaxAttempts.
func withRetry[T any](ctx context.Context, opts Options, op func(context.Context) (T, error)) (T, error) {
	var zero T
	backoff := opts.RetryBackoff
	for attempt := 1; ; attempt++ {
		cctx := ctx
		cancel := func() {}
		if opts.CallTimeout > 0 {
			cctx, cancel = context.WithTimeout(ctx, opts.CallTimeout)
		}
		v, err := op(cctx)
		cancel()
		if err == nil {
			return v, nil
		}
		if attempt >= opts.MaxAttempts || !retryable(err) {
			return zero, err
		}
		time.Sleep(backoff)
		backoff *= 2
	}
}

// retryable treats typed rate-limit errors and call timeouts as
// transient.
func retryable(err error) bool {
	return apperrors.IsTransient(err) || errors.Is(err, context.DeadlineExceeded)
}
