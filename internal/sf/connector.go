// Copyright (c) 2025 Wingman
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sf

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	apperrors "wingman/cli/internal/errors"
	"wingman/cli/internal/fieldref"
	"wingman/cli/internal/manifest"
	"wingman/cli/internal/replace"
)

// Org adapts the sf client and workspace layout to the replacement
// engine's connector interface. Each retrieve/deploy call writes a
// numbered manifest so that operators can replay any batch by hand.
type Org struct {
	client       *Client
	layout       Layout
	pollInterval time.Duration

	mu       sync.Mutex
	batchSeq int
}

// NewOrg creates the connector. The layout's directories must exist
// (see Layout.Ensure).
func NewOrg(client *Client, layout Layout) *Org {
	return &Org{
		client:       client,
		layout:       layout,
		pollInterval: 5 * time.Second,
	}
}

// nextBatch allocates the next manifest sequence number.
func (o *Org) nextBatch() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.batchSeq++
	return o.batchSeq
}

// FieldExists checks the org schema for the referenced field.
func (o *Org) FieldExists(ctx context.Context, ref fieldref.Ref) (bool, error) {
	return o.client.FieldExists(ctx, ref.Object, ref.Field)
}

// ListReports enumerates org reports, resolving folder labels to
// developer names so full names match metadata API expectations.
// Unfiled reports live under the unfiled$public folder.
func (o *Org) ListReports(ctx context.Context) ([]replace.ReportDescriptor, error) {
	return o.ListReportsMatching(ctx, "")
}

// ListReportsMatching is ListReports narrowed to reports whose name or
// developer name contains the given text.
func (o *Org) ListReportsMatching(ctx context.Context, nameContains string) ([]replace.ReportDescriptor, error) {
	reports, err := o.client.Reports(ctx, nameContains)
	if err != nil {
		return nil, err
	}
	folders, err := o.client.Folders(ctx)
	if err != nil {
		return nil, err
	}
	folderDev := make(map[string]string, len(folders))
	for _, f := range folders {
		if f.Name != "" && f.DeveloperName != "" {
			folderDev[f.Name] = f.DeveloperName
		}
	}

	out := make([]replace.ReportDescriptor, 0, len(reports))
	for _, r := range reports {
		if r.DeveloperName == "" {
			continue
		}
		out = append(out, replace.ReportDescriptor{
			ID:       r.ID,
			FullName: qualifyFullName(r, folderDev),
		})
	}
	return out, nil
}

// qualifyFullName builds folder/DeveloperName for a report record.
func qualifyFullName(r ReportRecord, folderDev map[string]string) string {
	if r.FolderName == "" || r.FolderName == "Public Reports" {
		return "unfiled$public/" + r.DeveloperName
	}
	if dev, ok := folderDev[r.FolderName]; ok {
		return dev + "/" + r.DeveloperName
	}
	// Fallback when the folder query was incomplete.
	return strings.ReplaceAll(r.FolderName, " ", "_") + "/" + r.DeveloperName
}

// Retrieve fetches the batch through a manifest-driven metadata
// retrieve, then loads each staged file into its descriptor.
func (o *Org) Retrieve(ctx context.Context, reports []replace.ReportDescriptor) ([]replace.ReportDescriptor, error) {
	seq := o.nextBatch()
	names := make([]string, len(reports))
	for i, r := range reports {
		names[i] = r.FullName
	}
	manifestPath := o.layout.RetrieveManifest(seq)
	if err := manifest.ForReports(names).Write(manifestPath); err != nil {
		return nil, err
	}
	if err := o.client.Retrieve(ctx, manifestPath); err != nil {
		return nil, err
	}

	out := make([]replace.ReportDescriptor, len(reports))
	for i, r := range reports {
		path := o.layout.ReportPath(r.FullName)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.NotFound,
				fmt.Sprintf("report %s was not staged by retrieve", r.FullName), err)
		}
		r.StoragePath = path
		r.RawDefinition = string(data)
		out[i] = r
	}
	return out, nil
}

// Deploy writes rewritten definitions into the staging tree, queues a
// manifest deploy, and polls the job until terminal.
func (o *Org) Deploy(ctx context.Context, reports []replace.ReportDescriptor) (replace.DeployResult, error) {
	seq := o.nextBatch()
	names := make([]string, len(reports))
	for i, r := range reports {
		names[i] = r.FullName
		if err := os.WriteFile(r.StoragePath, []byte(r.RawDefinition), 0o644); err != nil {
			return replace.DeployResult{}, fmt.Errorf("stage report %s: %w", r.FullName, err)
		}
	}
	manifestPath := o.layout.DeployManifest(seq)
	if err := manifest.ForReports(names).Write(manifestPath); err != nil {
		return replace.DeployResult{}, err
	}

	jobID, err := o.client.DeployStart(ctx, manifestPath)
	if err != nil {
		return replace.DeployResult{}, err
	}

	for {
		status, err := o.client.DeployReport(ctx, jobID)
		if err != nil {
			return replace.DeployResult{}, err
		}
		if status.Done {
			result := replace.DeployResult{JobID: jobID, Status: status.Status}
			for _, cf := range status.ComponentFailures {
				result.ComponentErrors = append(result.ComponentErrors, replace.ComponentError{
					FullName: cf.FullName,
					Problem:  cf.Problem,
				})
			}
			return result, nil
		}
		select {
		case <-ctx.Done():
			return replace.DeployResult{}, apperrors.Wrap(apperrors.RateLimited,
				"deploy polling interrupted", ctx.Err())
		case <-time.After(o.pollInterval):
		}
	}
}
