// Copyright (c) 2025 Wingman
// Licensed under the MIT License. See LICENSE file in the project root for details.

package replace

// Status is a batch's position in the orchestration state machine.
type Status int

const (
	StatusPending Status = iota
	StatusRetrieved
	StatusRewritten
	StatusDryRunReported
	StatusBackedUp
	StatusDeployed
	StatusConfirmed
	StatusFailed
)

// String returns a human-readable representation of the batch status.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRetrieved:
		return "retrieved"
	case StatusRewritten:
		return "rewritten"
	case StatusDryRunReported:
		return "dry_run_reported"
	case StatusBackedUp:
		return "backed_up"
	case StatusDeployed:
		return "deployed"
	case StatusConfirmed:
		return "confirmed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether a batch in this status is done for the run.
func (s Status) Terminal() bool {
	switch s {
	case StatusDryRunReported, StatusConfirmed, StatusFailed:
		return true
	}
	return false
}

// Batch is the unit of orchestration: a bounded-size group of reports
// processed together through retrieve, rewrite, and deploy.
type Batch struct {
	// ID numbers batches from 1 in locator order.
	ID      int
	Reports []ReportDescriptor
	Status  Status
	// Err records why the batch failed, nil otherwise.
	Err error
	// Resumed marks a batch skipped because a prior run confirmed it.
	Resumed bool
}

func (b *Batch) fail(err error) {
	b.Status = StatusFailed
	b.Err = err
}

// Partition splits candidates into fixed-size contiguous batches in
// locator order. Every report lands in exactly one batch; the last
// batch holds the remainder.
func Partition(reports []ReportDescriptor, size int) []*Batch {
	if size <= 0 || len(reports) == 0 {
		return nil
	}
	batches := make([]*Batch, 0, (len(reports)+size-1)/size)
	for start := 0; start < len(reports); start += size {
		end := start + size
		if end > len(reports) {
			end = len(reports)
		}
		batches = append(batches, &Batch{
			ID:      len(batches) + 1,
			Reports: reports[start:end],
			Status:  StatusPending,
		})
	}
	return batches
}
