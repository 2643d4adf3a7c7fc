// Copyright (c) 2025 Wingman
// Licensed under the MIT License. See LICENSE file in the project root for details.

package replace

import (
	"fmt"

	"wingman/cli/internal/fieldref"
)

// Plan is the immutable configuration for one replacement run.
type Plan struct {
	OldField  fieldref.Ref
	NewField  fieldref.Ref
	DryRun    bool
	BatchSize int
}

// NewPlan validates and builds a run plan.
func NewPlan(oldField, newField fieldref.Ref, dryRun bool, batchSize int) (Plan, error) {
	if oldField.IsZero() || newField.IsZero() {
		return Plan{}, fmt.Errorf("both old and new field references are required")
	}
	if oldField == newField {
		return Plan{}, fmt.Errorf("old and new field references are identical: %s", oldField)
	}
	if batchSize <= 0 {
		return Plan{}, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}
	return Plan{
		OldField:  oldField,
		NewField:  newField,
		DryRun:    dryRun,
		BatchSize: batchSize,
	}, nil
}
