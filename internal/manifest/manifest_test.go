// Copyright (c) 2025 Wingman
// Licensed under the MIT License. See LICENSE file in the project root for details.

package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestForReportsRoundTrip(t *testing.T) {
	members := []string{
		"SalesReports/Pipeline_By_Region",
		"unfiled$public/Quarterly_Totals",
	}
	p := ForReports(members)

	path := filepath.Join(t.TempDir(), "retrieve", "package_1.xml")
	if err := p.Write(path); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if !strings.HasPrefix(content, xmlHeaderPrefix) {
		t.Errorf("manifest missing XML declaration, got prefix %q", content[:40])
	}
	if !strings.Contains(content, `xmlns="http://soap.sforce.com/2006/04/metadata"`) {
		t.Error("manifest missing metadata namespace")
	}
	if !strings.Contains(content, "<version>65.0</version>") {
		t.Error("manifest missing API version")
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	gotMembers := got.Members("Report")
	if len(gotMembers) != len(members) {
		t.Fatalf("Members() = %v, want %v", gotMembers, members)
	}
	for i := range members {
		if gotMembers[i] != members[i] {
			t.Errorf("member %d = %q, want %q", i, gotMembers[i], members[i])
		}
	}
}

const xmlHeaderPrefix = "<?xml"

func TestMembersUnknownType(t *testing.T) {
	p := ForReports([]string{"a/b"})
	if got := p.Members("CustomObject"); got != nil {
		t.Errorf("Members(CustomObject) = %v, want nil", got)
	}
}
