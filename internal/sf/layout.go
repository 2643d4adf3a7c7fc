// Copyright (c) 2025 Wingman
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sf

import (
	"fmt"
	"os"
	"path/filepath"
)

// Layout describes the on-disk working tree for a migration run:
// retrieve staging in sf source format, per-batch manifests, and
// pre-mutation backups.
type Layout struct {
	Root string
}

// NewLayout creates a layout rooted at the given project directory.
func NewLayout(root string) Layout {
	return Layout{Root: root}
}

// ReportsDir is the sf source-format staging directory for reports.
func (l Layout) ReportsDir() string {
	return filepath.Join(l.Root, "force-app", "main", "default", "reports")
}

// ReportPath returns the staging path for a report full name.
func (l Layout) ReportPath(fullName string) string {
	return filepath.Join(l.ReportsDir(), filepath.FromSlash(fullName)+".report-meta.xml")
}

// RetrieveManifest returns the per-batch retrieve manifest path.
func (l Layout) RetrieveManifest(batch int) string {
	return filepath.Join(l.Root, "report-migration", "retrieve", fmt.Sprintf("package_%d.xml", batch))
}

// DeployManifest returns the per-batch deploy manifest path.
func (l Layout) DeployManifest(batch int) string {
	return filepath.Join(l.Root, "report-migration", "deploy", fmt.Sprintf("package_%d.xml", batch))
}

// BackupDir is the root for run-scoped pre-mutation snapshots.
func (l Layout) BackupDir() string {
	return filepath.Join(l.Root, "report-migration", "backup")
}

// Ensure creates the migration directory structure.
func (l Layout) Ensure() error {
	dirs := []string{
		filepath.Join(l.Root, "report-migration", "retrieve"),
		filepath.Join(l.Root, "report-migration", "deploy"),
		l.BackupDir(),
		l.ReportsDir(),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", d, err)
		}
	}
	return nil
}
