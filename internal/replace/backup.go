// Copyright (c) 2025 Wingman
// Licensed under the MIT License. See LICENSE file in the project root for details.

package replace

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// BackupRecord is a durable, write-once snapshot of a report's content
// taken before mutation. Records are never garbage-collected; operators
// use them for manual rollback.
type BackupRecord struct {
	ReportID        string
	FullName        string
	Path            string
	OriginalContent string
	Timestamp       time.Time
}

// BackupManager persists pre-mutation snapshots under a run-scoped
// directory. Snapshot returns only after the write is durable, and a
// report snapshotted once in a run keeps its first record on retries.
type BackupManager struct {
	root string

	mu      sync.Mutex
	records map[string]BackupRecord
}

// NewBackupManager creates a manager rooted at baseDir/runStamp.
func NewBackupManager(baseDir, runStamp string) *BackupManager {
	return &BackupManager{
		root:    filepath.Join(baseDir, runStamp),
		records: make(map[string]BackupRecord),
	}
}

// Root returns the run-scoped backup directory.
func (m *BackupManager) Root() string { return m.root }

// Count returns the number of snapshots written this run.
func (m *BackupManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// Snapshot captures the report's raw definition before any external
// mutation is permitted for it. The snapshot is fsynced to disk before
// returning; a second call for the same report reuses the first record.
func (m *BackupManager) Snapshot(r ReportDescriptor) (BackupRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rec, ok := m.records[r.ID]; ok {
		return rec, nil
	}

	path := filepath.Join(m.root, filepath.FromSlash(r.FullName)+".report-meta.xml")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return BackupRecord{}, fmt.Errorf("create backup dir: %w", err)
	}
	if err := writeDurable(path, []byte(r.RawDefinition)); err != nil {
		return BackupRecord{}, fmt.Errorf("write backup for %s: %w", r.FullName, err)
	}

	rec := BackupRecord{
		ReportID:        r.ID,
		FullName:        r.FullName,
		Path:            path,
		OriginalContent: r.RawDefinition,
		Timestamp:       time.Now(),
	}
	m.records[r.ID] = rec
	return rec, nil
}

// Restore reconstructs the pre-run descriptor from a backup record,
// reading content back from disk so it also validates durability.
func (m *BackupManager) Restore(rec BackupRecord) (ReportDescriptor, error) {
	data, err := os.ReadFile(rec.Path)
	if err != nil {
		return ReportDescriptor{}, fmt.Errorf("read backup %s: %w", rec.Path, err)
	}
	return ReportDescriptor{
		ID:            rec.ReportID,
		FullName:      rec.FullName,
		StoragePath:   rec.Path,
		RawDefinition: string(data),
	}, nil
}

// writeDurable writes data and fsyncs both the file and its directory
// so the snapshot survives a crash before the deploy that follows it.
func writeDurable(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	dir, err := os.Open(filepath.Dir(path))
	if err != nil {
		return err
	}
	defer dir.Close()
	return dir.Sync()
}
