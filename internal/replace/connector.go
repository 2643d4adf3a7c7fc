// Copyright (c) 2025 Wingman
// Licensed under the MIT License. See LICENSE file in the project root for details.

package replace

import (
	"context"

	"wingman/cli/internal/fieldref"
)

// Connector is the capability interface to the remote org. The engine
// never talks to the platform directly; implementations live in
// internal/sf (the sf CLI) and internal/localorg (a reports directory).
//
// Retrieve and Deploy operate on whole batches: a retrieve failure for
// any report fails the call, and Deploy blocks until the remote deploy
// reaches a terminal state.
type Connector interface {
	// FieldExists reports whether the referenced object and field exist
	// in the org schema.
	FieldExists(ctx context.Context, ref fieldref.Ref) (bool, error)

	// ListReports enumerates all reports, identifiers only.
	ListReports(ctx context.Context) ([]ReportDescriptor, error)

	// Retrieve fetches definitions for the given reports and returns
	// descriptors with RawDefinition and StoragePath populated.
	Retrieve(ctx context.Context, reports []ReportDescriptor) ([]ReportDescriptor, error)

	// Deploy pushes the given definitions to the org and polls the
	// deploy until terminal.
	Deploy(ctx context.Context, reports []ReportDescriptor) (DeployResult, error)
}
