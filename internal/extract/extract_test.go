// Copyright (c) 2025 Wingman
// Licensed under the MIT License. See LICENSE file in the project root for details.

package extract

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"wingman/cli/internal/sf"
)

// queryRunner fakes the sf CLI: field listings answer the plain query,
// per-field metadata answers the tooling query.
type queryRunner struct {
	fields   []string
	metadata map[string]string
}

func (q *queryRunner) Run(ctx context.Context, args ...string) ([]byte, error) {
	call := strings.Join(args, " ")
	if strings.Contains(call, "--use-tooling-api") {
		for field, record := range q.metadata {
			if strings.Contains(call, "DeveloperName = '"+field+"'") {
				return []byte(`{"status":0,"result":{"records":[` + record + `],"totalSize":1,"done":true}}`), nil
			}
		}
		return []byte(`{"status":0,"result":{"records":[],"totalSize":0,"done":true}}`), nil
	}
	var rows []string
	for _, f := range q.fields {
		rows = append(rows, `{"DeveloperName":"`+f+`"}`)
	}
	return []byte(`{"status":0,"result":{"records":[` + strings.Join(rows, ",") + `],"totalSize":1,"done":true}}`), nil
}

func metadataRecord(field, label, dataType, description, formula string) string {
	return `{"EntityDefinition":{"DeveloperName":"Account"},` +
		`"FullName":"Account.` + field + `__c","NamespacePrefix":"",` +
		`"DeveloperName":"` + field + `","MasterLabel":"` + label + `",` +
		`"DataType":"` + dataType + `","Description":"` + description + `",` +
		`"Metadata":{"formula":"` + formula + `"}}`
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening csv: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("reading csv: %v", err)
	}
	return rows
}

func TestRunWritesFieldRows(t *testing.T) {
	runner := &queryRunner{
		fields: []string{"Margin", "Revenue"},
		metadata: map[string]string{
			"Margin":  metadataRecord("Margin", "Margin", "Formula (Percent)", "Gross margin", "Revenue__c / Cost__c"),
			"Revenue": metadataRecord("Revenue", "Revenue", "Currency", "", ""),
		},
	}
	client := sf.NewClientWithRunner("staging", runner)
	path := filepath.Join(t.TempDir(), "fields.csv")

	rows, err := New(client).Run(context.Background(), Options{Objects: []string{"Account"}}, path)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if rows != 2 {
		t.Errorf("Run() = %d rows, want 2", rows)
	}

	records := readCSV(t, path)
	if len(records) != 3 {
		t.Fatalf("csv has %d rows, want header plus 2", len(records))
	}
	wantHeader := []string{"Object", "Full Name", "Namespace", "DeveloperName", "Label", "Type", "Description", "Formula"}
	for i, col := range wantHeader {
		if records[0][i] != col {
			t.Errorf("header[%d] = %q, want %q", i, records[0][i], col)
		}
	}
	// Field names are sorted, so Margin comes first.
	if records[1][3] != "Margin" || records[1][7] != "Revenue__c / Cost__c" {
		t.Errorf("first row = %v", records[1])
	}
	if records[2][3] != "Revenue" || records[2][5] != "Currency" {
		t.Errorf("second row = %v", records[2])
	}
}

func TestRunSpecificFieldsAndCap(t *testing.T) {
	runner := &queryRunner{
		metadata: map[string]string{
			"Margin": metadataRecord("Margin", "Margin", "Percent", "", ""),
		},
	}
	client := sf.NewClientWithRunner("staging", runner)
	path := filepath.Join(t.TempDir(), "fields.csv")

	var visited []string
	opts := Options{
		Objects:   []string{"Account"},
		Fields:    []string{"Margin", "Bogus"},
		MaxFields: 1,
		Progress:  func(object, field string) { visited = append(visited, object+"."+field) },
	}
	rows, err := New(client).Run(context.Background(), opts, path)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if rows != 1 {
		t.Errorf("Run() = %d rows, want 1", rows)
	}
	if len(visited) != 1 || visited[0] != "Account.Margin" {
		t.Errorf("visited = %v, want only the capped field", visited)
	}
}

func TestRunNoObjects(t *testing.T) {
	client := sf.NewClientWithRunner("staging", &queryRunner{})
	if _, err := New(client).Run(context.Background(), Options{}, filepath.Join(t.TempDir(), "f.csv")); err == nil {
		t.Error("Run() accepted empty object list")
	}
}

func TestCollapseWhitespace(t *testing.T) {
	got := collapseWhitespace("IF(\n  Revenue__c > 0,\n  1, 0\n)")
	want := "IF( Revenue__c > 0, 1, 0 )"
	if got != want {
		t.Errorf("collapseWhitespace() = %q, want %q", got, want)
	}
}
