// Copyright (c) 2025 Wingman
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package replace implements the bulk field-reference replacement engine.
// It locates every report referencing a target field, rewrites the
// reference inside each report definition, batches the work to respect
// org API limits, backs up originals before mutation, and supports a
// non-destructive dry-run mode.
//
// The engine talks to the org exclusively through the Connector
// interface, so it runs unchanged against the sf CLI, a local reports
// directory, or an in-memory fake in tests.
package replace

import (
	"sort"
	"strings"
)

// ReportDescriptor identifies one report in the org. RawDefinition is
// empty until the report has been retrieved. A descriptor is owned by
// the pipeline stage currently processing it; stages hand descriptors
// on by value and never share them across goroutines.
type ReportDescriptor struct {
	// ID is the report's record id; candidate ordering is by ID.
	ID string
	// FullName is the metadata full name, folder/DeveloperName.
	FullName string
	// StoragePath is where the retrieved definition lives on disk.
	StoragePath string
	// RawDefinition is the report-meta.xml content as retrieved.
	RawDefinition string
}

// DeployResult is the terminal outcome of one batched deploy call.
type DeployResult struct {
	JobID           string
	Status          string
	ComponentErrors []ComponentError
}

// ComponentError is one per-component diagnostic from a failed deploy.
type ComponentError struct {
	FullName string
	Problem  string
}

// Succeeded reports whether the deploy finished clean.
func (r DeployResult) Succeeded() bool {
	return strings.EqualFold(r.Status, "Succeeded")
}

// ErrorDetail flattens component errors into one diagnostic string.
func (r DeployResult) ErrorDetail() string {
	if len(r.ComponentErrors) == 0 {
		return r.Status
	}
	parts := make([]string, 0, len(r.ComponentErrors))
	for _, ce := range r.ComponentErrors {
		parts = append(parts, ce.FullName+": "+ce.Problem)
	}
	return strings.Join(parts, "; ")
}

// sortByID orders descriptors deterministically so repeated runs over
// unchanged org state produce identical batch partitioning.
func sortByID(reports []ReportDescriptor) {
	sort.Slice(reports, func(i, j int) bool { return reports[i].ID < reports[j].ID })
}
