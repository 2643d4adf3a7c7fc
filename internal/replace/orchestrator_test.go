// Copyright (c) 2025 Wingman
// Licensed under the MIT License. See LICENSE file in the project root for details.

package replace

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "wingman/cli/internal/errors"
	"wingman/cli/internal/fieldref"
)

var (
	testOld = fieldref.Ref{Object: "Account", Field: "Revenue__c"}
	testNew = fieldref.Ref{Object: "Account", Field: "AnnualRevenue__c"}
)

// fakeConnector is an in-memory org: definitions keyed by report id,
// with per-call failure injection.
type fakeConnector struct {
	definitions map[string]string
	fieldKnown  bool

	retrieveCalls int
	deployCalls   int
	deployed      [][]ReportDescriptor

	failRetrieve func(call int) error
	failDeploy   func(call int) (DeployResult, error)
}

func newFakeConnector(definitions map[string]string) *fakeConnector {
	return &fakeConnector{definitions: definitions, fieldKnown: true}
}

func (f *fakeConnector) FieldExists(ctx context.Context, ref fieldref.Ref) (bool, error) {
	return f.fieldKnown, nil
}

func (f *fakeConnector) ListReports(ctx context.Context) ([]ReportDescriptor, error) {
	out := make([]ReportDescriptor, 0, len(f.definitions))
	for id := range f.definitions {
		out = append(out, ReportDescriptor{ID: id, FullName: "ops/" + id})
	}
	sortByID(out)
	return out, nil
}

func (f *fakeConnector) Retrieve(ctx context.Context, reports []ReportDescriptor) ([]ReportDescriptor, error) {
	f.retrieveCalls++
	if f.failRetrieve != nil {
		if err := f.failRetrieve(f.retrieveCalls); err != nil {
			return nil, err
		}
	}
	out := make([]ReportDescriptor, len(reports))
	for i, r := range reports {
		r.RawDefinition = f.definitions[r.ID]
		out[i] = r
	}
	return out, nil
}

func (f *fakeConnector) Deploy(ctx context.Context, reports []ReportDescriptor) (DeployResult, error) {
	f.deployCalls++
	if f.failDeploy != nil {
		if res, err := f.failDeploy(f.deployCalls); err != nil || res.Status != "" {
			return res, err
		}
	}
	f.deployed = append(f.deployed, reports)
	for _, r := range reports {
		f.definitions[r.ID] = r.RawDefinition
	}
	return DeployResult{JobID: fmt.Sprintf("job-%d", f.deployCalls), Status: "Succeeded"}, nil
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.RetryBackoff = time.Millisecond
	opts.CallTimeout = time.Second
	return opts
}

func mustPlan(t *testing.T, dryRun bool, batchSize int) Plan {
	t.Helper()
	plan, err := NewPlan(testOld, testNew, dryRun, batchSize)
	require.NoError(t, err)
	return plan
}

func withRef(id string) (string, string) {
	return id, fmt.Sprintf("<report><column>Account.Revenue__c</column><n>%s</n></report>", id)
}

func withoutRef(id string) (string, string) {
	return id, fmt.Sprintf("<report><column>Contact.Email</column><n>%s</n></report>", id)
}

func defs(pairs ...func(string) (string, string)) map[string]string {
	out := make(map[string]string)
	for i, mk := range pairs {
		id, def := mk(fmt.Sprintf("%03d", i+1))
		out[id] = def
	}
	return out
}

func TestOrchestratorRunConfirmsAllBatches(t *testing.T) {
	conn := newFakeConnector(defs(withRef, withoutRef, withRef, withRef, withoutRef))
	plan := mustPlan(t, false, 2)
	backups := NewBackupManager(t.TempDir(), "run")
	changes := NewChangeReport(plan)
	orch := NewOrchestrator(conn, backups, changes, testOptions(), Hooks{})

	summary, err := orch.Run(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Confirmed)
	assert.Equal(t, 0, summary.Failed)
	assert.False(t, summary.Halted)
	for _, b := range summary.Batches {
		assert.Equal(t, StatusConfirmed, b.Status)
	}

	// Every retrieved report is backed up, matched or not.
	assert.Equal(t, 5, backups.Count())

	// Only reports that referenced the old field were deployed.
	deployedIDs := map[string]bool{}
	for _, batch := range conn.deployed {
		for _, r := range batch {
			deployedIDs[r.ID] = true
			assert.Contains(t, r.RawDefinition, "Account.AnnualRevenue__c")
			assert.NotContains(t, r.RawDefinition, "Account.Revenue__c")
		}
	}
	assert.Equal(t, map[string]bool{"001": true, "003": true, "004": true}, deployedIDs)

	s := changes.Summary()
	assert.Equal(t, 5, s.Scanned)
	assert.Equal(t, 3, s.Matched)
	assert.Equal(t, 3, s.Replaced)
	assert.Equal(t, 0, s.Failed)
}

func TestOrchestratorDryRunTouchesNothing(t *testing.T) {
	conn := newFakeConnector(defs(withRef, withoutRef, withRef))
	plan := mustPlan(t, true, 2)
	backups := NewBackupManager(t.TempDir(), "run")
	changes := NewChangeReport(plan)
	orch := NewOrchestrator(conn, backups, changes, testOptions(), Hooks{})

	summary, err := orch.Run(context.Background(), plan)
	require.NoError(t, err)

	assert.Zero(t, conn.deployCalls, "dry run must not deploy")
	assert.Zero(t, backups.Count(), "dry run must not write backups")
	for _, b := range summary.Batches {
		assert.Equal(t, StatusDryRunReported, b.Status)
	}

	replaced := 0
	for _, e := range changes.Entries() {
		if e.Outcome == OutcomeReplaced {
			replaced++
			assert.NotEmpty(t, e.Diff, "dry-run entries carry a diff")
			assert.Contains(t, e.Diff, "Account.AnnualRevenue__c")
		}
	}
	assert.Equal(t, 2, replaced)
}

func TestOrchestratorDeployFailureHaltsRun(t *testing.T) {
	conn := newFakeConnector(defs(withRef, withRef, withRef))
	conn.failDeploy = func(call int) (DeployResult, error) {
		if call == 2 {
			return DeployResult{
				JobID:  "job-2",
				Status: "Failed",
				ComponentErrors: []ComponentError{
					{FullName: "ops/002", Problem: "invalid column"},
				},
			}, nil
		}
		return DeployResult{}, nil
	}
	plan := mustPlan(t, false, 1)
	backups := NewBackupManager(t.TempDir(), "run")
	changes := NewChangeReport(plan)
	orch := NewOrchestrator(conn, backups, changes, testOptions(), Hooks{})

	summary, err := orch.Run(context.Background(), plan)
	require.Error(t, err)

	assert.Equal(t, 1, summary.Confirmed)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.NotAttempted)
	assert.True(t, summary.Halted)

	assert.Equal(t, StatusConfirmed, summary.Batches[0].Status)
	assert.Equal(t, StatusFailed, summary.Batches[1].Status)
	assert.Equal(t, apperrors.DeployValidationFailed, apperrors.KindOf(summary.Batches[1].Err))
	assert.Equal(t, StatusPending, summary.Batches[2].Status)

	// The failed batch was snapshotted before its deploy was attempted.
	assert.Equal(t, 2, backups.Count())
}

func TestOrchestratorContinueOnError(t *testing.T) {
	conn := newFakeConnector(defs(withRef, withRef, withRef))
	conn.failDeploy = func(call int) (DeployResult, error) {
		if call == 2 {
			return DeployResult{JobID: "job-2", Status: "Failed"}, nil
		}
		return DeployResult{}, nil
	}
	plan := mustPlan(t, false, 1)
	opts := testOptions()
	opts.ContinueOnError = true
	changes := NewChangeReport(plan)
	orch := NewOrchestrator(conn, NewBackupManager(t.TempDir(), "run"), changes, opts, Hooks{})

	summary, err := orch.Run(context.Background(), plan)
	require.Error(t, err)
	assert.Equal(t, 2, summary.Confirmed)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 0, summary.NotAttempted)
	assert.False(t, summary.Halted)
}

func TestOrchestratorSkipsConfirmedBatches(t *testing.T) {
	conn := newFakeConnector(defs(withRef, withRef, withRef, withRef))
	plan := mustPlan(t, false, 2)
	opts := testOptions()
	opts.SkipConfirmed = map[int]bool{1: true}
	changes := NewChangeReport(plan)
	orch := NewOrchestrator(conn, NewBackupManager(t.TempDir(), "run"), changes, opts, Hooks{})

	summary, err := orch.Run(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Confirmed)
	assert.Equal(t, 1, summary.Resumed)
	assert.True(t, summary.Batches[0].Resumed)
	// Only batch 2 was actually processed.
	assert.Equal(t, 1, conn.retrieveCalls)
	assert.Equal(t, 1, conn.deployCalls)
}

func TestOrchestratorMissingFieldFailsBeforeBatching(t *testing.T) {
	conn := newFakeConnector(defs(withRef))
	conn.fieldKnown = false
	plan := mustPlan(t, false, 1)
	changes := NewChangeReport(plan)
	orch := NewOrchestrator(conn, NewBackupManager(t.TempDir(), "run"), changes, testOptions(), Hooks{})

	_, err := orch.Run(context.Background(), plan)
	require.Error(t, err)
	assert.Equal(t, apperrors.NotFound, apperrors.KindOf(err))
	assert.Zero(t, conn.retrieveCalls)
	assert.Zero(t, conn.deployCalls)
}

func TestOrchestratorMalformedReportSkipped(t *testing.T) {
	id1, def1 := withRef("001")
	conn := newFakeConnector(map[string]string{
		id1:   def1,
		"002": "<report><unclosed>",
	})
	plan := mustPlan(t, false, 2)
	changes := NewChangeReport(plan)
	orch := NewOrchestrator(conn, NewBackupManager(t.TempDir(), "run"), changes, testOptions(), Hooks{})

	summary, err := orch.Run(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Confirmed)

	// The malformed report is excluded from deploy but the batch
	// still confirms.
	require.Len(t, conn.deployed, 1)
	require.Len(t, conn.deployed[0], 1)
	assert.Equal(t, "001", conn.deployed[0][0].ID)

	s := changes.Summary()
	assert.Equal(t, 1, s.Replaced)
	assert.Equal(t, 1, s.Skipped)
}

func TestOrchestratorNothingToDeployConfirmsWithoutDeploy(t *testing.T) {
	conn := newFakeConnector(defs(withoutRef, withoutRef))
	plan := mustPlan(t, false, 2)
	changes := NewChangeReport(plan)
	orch := NewOrchestrator(conn, NewBackupManager(t.TempDir(), "run"), changes, testOptions(), Hooks{})

	summary, err := orch.Run(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Confirmed)
	assert.Zero(t, conn.deployCalls)
}

func TestOrchestratorRetriesTransientFailures(t *testing.T) {
	conn := newFakeConnector(defs(withRef))
	conn.failRetrieve = func(call int) error {
		if call == 1 {
			return apperrors.New(apperrors.RateLimited, "REQUEST_LIMIT_EXCEEDED")
		}
		return nil
	}
	plan := mustPlan(t, false, 1)
	changes := NewChangeReport(plan)
	orch := NewOrchestrator(conn, NewBackupManager(t.TempDir(), "run"), changes, testOptions(), Hooks{})

	summary, err := orch.Run(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Confirmed)
	assert.Equal(t, 2, conn.retrieveCalls)
}

func TestOrchestratorDoesNotRetryFatalFailures(t *testing.T) {
	conn := newFakeConnector(defs(withRef))
	conn.failRetrieve = func(call int) error {
		return apperrors.New(apperrors.AuthFailed, "session expired")
	}
	plan := mustPlan(t, false, 1)
	changes := NewChangeReport(plan)
	orch := NewOrchestrator(conn, NewBackupManager(t.TempDir(), "run"), changes, testOptions(), Hooks{})

	summary, err := orch.Run(context.Background(), plan)
	require.Error(t, err)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, conn.retrieveCalls)
}

func TestOrchestratorBacksUpBeforeDeploy(t *testing.T) {
	conn := newFakeConnector(defs(withRef, withRef))
	plan := mustPlan(t, false, 2)
	backups := NewBackupManager(t.TempDir(), "run")
	changes := NewChangeReport(plan)

	var backedUpAtDeploy int
	conn.failDeploy = func(call int) (DeployResult, error) {
		backedUpAtDeploy = backups.Count()
		return DeployResult{}, nil
	}
	orch := NewOrchestrator(conn, backups, changes, testOptions(), Hooks{})

	_, err := orch.Run(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, 2, backedUpAtDeploy, "every report in the batch is snapshotted before its deploy call")
}

func TestOrchestratorCancellationFinishesInFlightBatch(t *testing.T) {
	conn := newFakeConnector(defs(withRef, withRef, withRef))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// Cancel the run while batch 1 is being retrieved.
	conn.failRetrieve = func(call int) error {
		if call == 1 {
			cancel()
		}
		return nil
	}
	plan := mustPlan(t, false, 1)
	backups := NewBackupManager(t.TempDir(), "run")
	changes := NewChangeReport(plan)
	orch := NewOrchestrator(conn, backups, changes, testOptions(), Hooks{})

	summary, err := orch.Run(ctx, plan)
	require.ErrorIs(t, err, context.Canceled)

	// The in-flight batch runs to its terminal state; the remainder is
	// never started.
	assert.Equal(t, StatusConfirmed, summary.Batches[0].Status)
	assert.Equal(t, 1, conn.deployCalls)
	assert.Equal(t, 1, backups.Count())
	assert.Equal(t, StatusPending, summary.Batches[1].Status)
	assert.Equal(t, StatusPending, summary.Batches[2].Status)
	assert.Equal(t, 1, summary.Confirmed)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 2, summary.NotAttempted)
	assert.True(t, summary.Halted)
}

func TestOrchestratorHooksObserveStages(t *testing.T) {
	conn := newFakeConnector(defs(withRef))
	plan := mustPlan(t, false, 1)
	changes := NewChangeReport(plan)

	var stages []Status
	hooks := Hooks{
		BatchAdvanced: func(b *Batch) { stages = append(stages, b.Status) },
	}
	orch := NewOrchestrator(conn, NewBackupManager(t.TempDir(), "run"), changes, testOptions(), hooks)

	_, err := orch.Run(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, []Status{StatusRetrieved, StatusRewritten, StatusBackedUp, StatusDeployed}, stages)
}

func TestOrchestratorHooksObserveStagesDryRun(t *testing.T) {
	conn := newFakeConnector(defs(withRef))
	plan := mustPlan(t, true, 1)
	changes := NewChangeReport(plan)

	var stages []Status
	hooks := Hooks{
		BatchAdvanced: func(b *Batch) { stages = append(stages, b.Status) },
	}
	orch := NewOrchestrator(conn, NewBackupManager(t.TempDir(), "run"), changes, testOptions(), hooks)

	_, err := orch.Run(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, []Status{StatusRetrieved, StatusRewritten}, stages)
}

func TestOrchestratorHooksObserveLifecycle(t *testing.T) {
	conn := newFakeConnector(defs(withRef, withRef, withRef))
	plan := mustPlan(t, false, 2)
	changes := NewChangeReport(plan)

	var planned, started, finished []int
	hooks := Hooks{
		RunPlanned: func(batches []*Batch) {
			for _, b := range batches {
				planned = append(planned, b.ID)
			}
		},
		BatchStarted:  func(b *Batch) { started = append(started, b.ID) },
		BatchFinished: func(b *Batch) { finished = append(finished, b.ID) },
	}
	orch := NewOrchestrator(conn, NewBackupManager(t.TempDir(), "run"), changes, testOptions(), hooks)

	_, err := orch.Run(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, planned)
	assert.Equal(t, []int{1, 2}, started)
	assert.Equal(t, []int{1, 2}, finished)
}
