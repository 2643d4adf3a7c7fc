// Copyright (c) 2025 Wingman
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package localorg implements the engine's org connector over a local
// directory of report files. It backs the --reports-path mode, where
// reports were already pulled to disk and no org round-trips happen:
// ListReports walks the tree, Retrieve reads files, and Deploy writes
// rewritten definitions back in place.
package localorg

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"wingman/cli/internal/fieldref"
	"wingman/cli/internal/replace"
)

// ReportSuffix is the sf source-format extension for report files.
const ReportSuffix = ".report-meta.xml"

// Connector serves report definitions from a local directory.
type Connector struct {
	root string
}

// New creates a connector rooted at the given reports directory.
func New(root string) (*Connector, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("reports path: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("reports path is not a directory: %s", root)
	}
	return &Connector{root: root}, nil
}

// FieldExists always reports true: a local directory carries no org
// schema to check against, so the existence gate is a no-op here.
func (c *Connector) FieldExists(ctx context.Context, ref fieldref.Ref) (bool, error) {
	return true, nil
}

// ListReports walks the tree for report files. The relative path
// doubles as both id and full name, which keeps ordering deterministic.
func (c *Connector) ListReports(ctx context.Context) ([]replace.ReportDescriptor, error) {
	var out []replace.ReportDescriptor
	err := filepath.WalkDir(c.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ReportSuffix) {
			return nil
		}
		rel, err := filepath.Rel(c.root, path)
		if err != nil {
			return err
		}
		fullName := strings.TrimSuffix(filepath.ToSlash(rel), ReportSuffix)
		out = append(out, replace.ReportDescriptor{
			ID:          fullName,
			FullName:    fullName,
			StoragePath: path,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk reports path: %w", err)
	}
	return out, nil
}

// Retrieve reads each report file into its descriptor.
func (c *Connector) Retrieve(ctx context.Context, reports []replace.ReportDescriptor) ([]replace.ReportDescriptor, error) {
	out := make([]replace.ReportDescriptor, len(reports))
	for i, r := range reports {
		data, err := os.ReadFile(r.StoragePath)
		if err != nil {
			return nil, fmt.Errorf("read report %s: %w", r.FullName, err)
		}
		r.RawDefinition = string(data)
		out[i] = r
	}
	return out, nil
}

// Deploy writes rewritten definitions back to their files.
func (c *Connector) Deploy(ctx context.Context, reports []replace.ReportDescriptor) (replace.DeployResult, error) {
	for _, r := range reports {
		if err := os.WriteFile(r.StoragePath, []byte(r.RawDefinition), 0o644); err != nil {
			return replace.DeployResult{Status: "Failed"}, fmt.Errorf("write report %s: %w", r.FullName, err)
		}
	}
	return replace.DeployResult{Status: "Succeeded"}, nil
}
