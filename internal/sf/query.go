// Copyright (c) 2025 Wingman
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sf

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// queryResponse mirrors `sf data query --json`.
type queryResponse struct {
	Status int `json:"status"`
	Result struct {
		Records   []json.RawMessage `json:"records"`
		TotalSize int               `json:"totalSize"`
		Done      bool              `json:"done"`
	} `json:"result"`
}

// Query runs a SOQL query and returns the raw records. Tooling API
// queries are used for field metadata lookups.
func (c *Client) Query(ctx context.Context, soql string, tooling bool) ([]json.RawMessage, error) {
	args := []string{"data", "query", "--query", soql, "--target-org", c.org, "--json"}
	if tooling {
		args = append(args, "--use-tooling-api")
	}
	out, err := c.runner.Run(ctx, args...)
	if err != nil {
		return nil, err
	}
	var resp queryResponse
	if err := json.Unmarshal(out, &resp); err != nil {
		return nil, fmt.Errorf("parse query response: %w", err)
	}
	return resp.Result.Records, nil
}

// soqlQuote escapes a string literal for interpolation into SOQL.
func soqlQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return s
}

// ReportRecord is one row of the report listing query.
type ReportRecord struct {
	ID            string `json:"Id"`
	Name          string `json:"Name"`
	DeveloperName string `json:"DeveloperName"`
	FolderName    string `json:"FolderName"`
}

// Reports lists all non-deleted reports, ordered by id. nameContains
// optionally narrows to reports whose name or developer name contains
// the given text.
func (c *Client) Reports(ctx context.Context, nameContains string) ([]ReportRecord, error) {
	soql := "SELECT Id, Name, DeveloperName, FolderName FROM Report WHERE IsDeleted = false"
	if nameContains != "" {
		q := soqlQuote(nameContains)
		soql += fmt.Sprintf(" AND (Name LIKE '%%%s%%' OR DeveloperName LIKE '%%%s%%')", q, q)
	}
	soql += " ORDER BY Id"

	raw, err := c.Query(ctx, soql, false)
	if err != nil {
		return nil, err
	}
	out := make([]ReportRecord, 0, len(raw))
	for _, r := range raw {
		var rec ReportRecord
		if err := json.Unmarshal(r, &rec); err != nil {
			return nil, fmt.Errorf("parse report record: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// FolderRecord is one row of the folder listing query.
type FolderRecord struct {
	ID            string `json:"Id"`
	Name          string `json:"Name"`
	DeveloperName string `json:"DeveloperName"`
}

// Folders lists report folders for label to developer-name mapping.
func (c *Client) Folders(ctx context.Context) ([]FolderRecord, error) {
	raw, err := c.Query(ctx, "SELECT Id, Name, DeveloperName FROM Folder ORDER BY Name", false)
	if err != nil {
		return nil, err
	}
	out := make([]FolderRecord, 0, len(raw))
	for _, r := range raw {
		var rec FolderRecord
		if err := json.Unmarshal(r, &rec); err != nil {
			return nil, fmt.Errorf("parse folder record: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// FieldNames lists the field developer names on an object.
func (c *Client) FieldNames(ctx context.Context, object string) ([]string, error) {
	soql := fmt.Sprintf(
		"SELECT DeveloperName FROM FieldDefinition WHERE EntityDefinition.DeveloperName = '%s'",
		soqlQuote(object))
	raw, err := c.Query(ctx, soql, false)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, r := range raw {
		var rec struct {
			DeveloperName string `json:"DeveloperName"`
		}
		if err := json.Unmarshal(r, &rec); err != nil {
			return nil, fmt.Errorf("parse field record: %w", err)
		}
		if rec.DeveloperName != "" {
			names = append(names, rec.DeveloperName)
		}
	}
	return names, nil
}

// FieldExists reports whether the object carries the given field. The
// custom-field __c suffix is stripped: FieldDefinition developer names
// exclude it.
func (c *Client) FieldExists(ctx context.Context, object, field string) (bool, error) {
	devName := strings.TrimSuffix(field, "__c")
	soql := fmt.Sprintf(
		"SELECT DeveloperName FROM FieldDefinition WHERE EntityDefinition.DeveloperName = '%s' AND DeveloperName = '%s'",
		soqlQuote(strings.TrimSuffix(object, "__c")), soqlQuote(devName))
	raw, err := c.Query(ctx, soql, false)
	if err != nil {
		return false, err
	}
	return len(raw) > 0, nil
}

// FieldMetadata is the detailed tooling-API view of one field.
type FieldMetadata struct {
	Object        string
	FullName      string
	Namespace     string
	DeveloperName string
	Label         string
	DataType      string
	Description   string
	Formula       string
}

// fieldMetadataRecord mirrors the tooling API FieldDefinition row.
type fieldMetadataRecord struct {
	EntityDefinition struct {
		DeveloperName string `json:"DeveloperName"`
	} `json:"EntityDefinition"`
	FullName        string          `json:"FullName"`
	NamespacePrefix string          `json:"NamespacePrefix"`
	DeveloperName   string          `json:"DeveloperName"`
	MasterLabel     string          `json:"MasterLabel"`
	DataType        string          `json:"DataType"`
	Description     string          `json:"Description"`
	Metadata        json.RawMessage `json:"Metadata"`
}

// GetFieldMetadata fetches detailed metadata for one field via the
// tooling API. Returns nil when the field has no definition row.
func (c *Client) GetFieldMetadata(ctx context.Context, object, field string) (*FieldMetadata, error) {
	soql := fmt.Sprintf(
		"SELECT EntityDefinition.DeveloperName, FullName, NamespacePrefix, DeveloperName, MasterLabel, DataType, Description, Metadata "+
			"FROM FieldDefinition WHERE EntityDefinition.DeveloperName = '%s' AND DeveloperName = '%s'",
		soqlQuote(object), soqlQuote(field))
	raw, err := c.Query(ctx, soql, true)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, nil
	}
	var rec fieldMetadataRecord
	if err := json.Unmarshal(raw[0], &rec); err != nil {
		return nil, fmt.Errorf("parse field metadata: %w", err)
	}
	return &FieldMetadata{
		Object:        rec.EntityDefinition.DeveloperName,
		Namespace:     rec.NamespacePrefix,
		FullName:      rec.FullName,
		DeveloperName: rec.DeveloperName,
		Label:         rec.MasterLabel,
		DataType:      rec.DataType,
		Description:   rec.Description,
		Formula:       extractFormula(rec.Metadata),
	}, nil
}

// extractFormula pulls the formula expression out of the metadata blob.
func extractFormula(metadata json.RawMessage) string {
	if len(metadata) == 0 {
		return ""
	}
	var m struct {
		Formula string `json:"formula"`
	}
	if err := json.Unmarshal(metadata, &m); err != nil {
		return ""
	}
	return m.Formula
}
