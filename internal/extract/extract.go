// Copyright (c) 2025 Wingman
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package extract exports object field metadata to CSV, so teams can
// review the inventory of fields before planning a replacement run.
package extract

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"wingman/cli/internal/sf"
)

// csvHeader is the fixed column order of the export.
var csvHeader = []string{"Object", "Full Name", "Namespace", "DeveloperName", "Label", "Type", "Description", "Formula"}

// Options controls the extraction.
type Options struct {
	// Objects to extract fields from, in output order.
	Objects []string
	// Fields limits extraction to these developer names when non-empty.
	Fields []string
	// MaxFields caps the number of fields per object. Zero means no cap.
	MaxFields int
	// Progress, when non-nil, receives per-field progress notes.
	Progress func(object, field string)
}

// Extractor fetches field metadata through the sf CLI.
type Extractor struct {
	client *sf.Client
}

// New creates an Extractor over the given client.
func New(client *sf.Client) *Extractor {
	return &Extractor{client: client}
}

// Run extracts field metadata for opts.Objects and writes it to a CSV
// file at path. Returns the number of rows written.
func (e *Extractor) Run(ctx context.Context, opts Options, path string) (int, error) {
	if len(opts.Objects) == 0 {
		return 0, fmt.Errorf("no objects to extract")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("creating output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return 0, fmt.Errorf("writing header: %w", err)
	}

	rows := 0
	for _, object := range opts.Objects {
		n, err := e.extractObject(ctx, w, object, opts)
		if err != nil {
			return rows, err
		}
		rows += n
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return rows, fmt.Errorf("flushing csv: %w", err)
	}
	if err := f.Sync(); err != nil {
		return rows, fmt.Errorf("syncing %s: %w", path, err)
	}
	return rows, nil
}

func (e *Extractor) extractObject(ctx context.Context, w *csv.Writer, object string, opts Options) (int, error) {
	names := opts.Fields
	if len(names) == 0 {
		all, err := e.client.FieldNames(ctx, object)
		if err != nil {
			return 0, fmt.Errorf("listing fields on %s: %w", object, err)
		}
		sort.Strings(all)
		names = all
	}
	if opts.MaxFields > 0 && len(names) > opts.MaxFields {
		names = names[:opts.MaxFields]
	}

	rows := 0
	for _, name := range names {
		if opts.Progress != nil {
			opts.Progress(object, name)
		}
		meta, err := e.client.GetFieldMetadata(ctx, object, name)
		if err != nil {
			return rows, fmt.Errorf("fetching %s.%s: %w", object, name, err)
		}
		if meta == nil {
			continue
		}
		record := []string{
			object,
			meta.FullName,
			meta.Namespace,
			meta.DeveloperName,
			meta.Label,
			meta.DataType,
			collapseWhitespace(meta.Description),
			collapseWhitespace(meta.Formula),
		}
		if err := w.Write(record); err != nil {
			return rows, fmt.Errorf("writing row for %s.%s: %w", object, name, err)
		}
		rows++
	}
	return rows, nil
}

// collapseWhitespace flattens newlines inside descriptions and formulas
// so each record stays on one CSV line when viewed in a plain editor.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
