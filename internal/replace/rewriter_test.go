// Copyright (c) 2025 Wingman
// Licensed under the MIT License. See LICENSE file in the project root for details.

package replace

import (
	"strings"
	"testing"

	apperrors "wingman/cli/internal/errors"
	"wingman/cli/internal/fieldref"
)

func TestRewriteTokenExactness(t *testing.T) {
	oldRef := fieldref.Ref{Object: "Account", Field: "Revenue__c"}
	newRef := fieldref.Ref{Object: "Account", Field: "AnnualRevenue__c"}

	tests := []struct {
		name     string
		content  string
		want     string
		replaced int
	}{
		{
			name:     "single occurrence",
			content:  `<report><column>Account.Revenue__c</column></report>`,
			want:     `<report><column>Account.AnnualRevenue__c</column></report>`,
			replaced: 1,
		},
		{
			name:     "multiple occurrences",
			content:  `<r><c>Account.Revenue__c</c><f>Account.Revenue__c &gt; 0</f></r>`,
			want:     `<r><c>Account.AnnualRevenue__c</c><f>Account.AnnualRevenue__c &gt; 0</f></r>`,
			replaced: 2,
		},
		{
			name:     "suffix superstring untouched",
			content:  `<r><c>Account.Revenue__c2</c></r>`,
			want:     `<r><c>Account.Revenue__c2</c></r>`,
			replaced: 0,
		},
		{
			name:     "prefix superstring untouched",
			content:  `<r><c>MyAccount.Revenue__c</c></r>`,
			want:     `<r><c>MyAccount.Revenue__c</c></r>`,
			replaced: 0,
		},
		{
			name:     "deeper qualification untouched",
			content:  `<r><c>Parent.Account.Revenue__c</c></r>`,
			want:     `<r><c>Parent.Account.Revenue__c</c></r>`,
			replaced: 0,
		},
		{
			name:     "bare field name untouched",
			content:  `<r><c>Revenue__c</c></r>`,
			want:     `<r><c>Revenue__c</c></r>`,
			replaced: 0,
		},
		{
			name:     "mixed exact and superstring",
			content:  `<r><a>Account.Revenue__c</a><b>Account.Revenue__cX</b></r>`,
			want:     `<r><a>Account.AnnualRevenue__c</a><b>Account.Revenue__cX</b></r>`,
			replaced: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Rewrite(tt.content, oldRef, newRef)
			if err != nil {
				t.Fatalf("Rewrite() error = %v", err)
			}
			if got.Content != tt.want {
				t.Errorf("Rewrite() content = %q, want %q", got.Content, tt.want)
			}
			if got.Replaced != tt.replaced {
				t.Errorf("Rewrite() replaced = %d, want %d", got.Replaced, tt.replaced)
			}
		})
	}
}

func TestRewriteNoMatchReturnsInputUnchanged(t *testing.T) {
	content := `<report><column>Contact.Email</column></report>`
	got, err := Rewrite(content,
		fieldref.Ref{Object: "Account", Field: "Revenue__c"},
		fieldref.Ref{Object: "Account", Field: "AnnualRevenue__c"})
	if err != nil {
		t.Fatalf("Rewrite() error = %v", err)
	}
	if got.Found != 0 || got.Replaced != 0 {
		t.Errorf("Rewrite() found = %d replaced = %d, want 0 and 0", got.Found, got.Replaced)
	}
	if got.Content != content {
		t.Errorf("Rewrite() modified content without matches")
	}
}

func TestRewriteIdempotent(t *testing.T) {
	oldRef := fieldref.Ref{Object: "Account", Field: "Revenue__c"}
	newRef := fieldref.Ref{Object: "Account", Field: "AnnualRevenue__c"}
	content := `<report><column>Account.Revenue__c</column></report>`

	first, err := Rewrite(content, oldRef, newRef)
	if err != nil {
		t.Fatalf("first Rewrite() error = %v", err)
	}
	second, err := Rewrite(first.Content, oldRef, newRef)
	if err != nil {
		t.Fatalf("second Rewrite() error = %v", err)
	}
	if second.Replaced != 0 {
		t.Errorf("second Rewrite() replaced = %d, want 0", second.Replaced)
	}
	if second.Content != first.Content {
		t.Errorf("second Rewrite() changed already-rewritten content")
	}
}

func TestRewriteMalformedXML(t *testing.T) {
	_, err := Rewrite(`<report><column>Account.Revenue__c</report>`,
		fieldref.Ref{Object: "Account", Field: "Revenue__c"},
		fieldref.Ref{Object: "Account", Field: "AnnualRevenue__c"})
	if err == nil {
		t.Fatal("Rewrite() accepted malformed XML")
	}
	if apperrors.KindOf(err) != apperrors.MalformedReport {
		t.Errorf("Rewrite() error kind = %v, want %v", apperrors.KindOf(err), apperrors.MalformedReport)
	}
}

func TestRewritePreservesSurroundingBytes(t *testing.T) {
	content := "<report>\n\t<col>Account.Revenue__c</col>\n\t<note>über — naïve</note>\n</report>"
	got, err := Rewrite(content,
		fieldref.Ref{Object: "Account", Field: "Revenue__c"},
		fieldref.Ref{Object: "Account", Field: "NetRevenue__c"})
	if err != nil {
		t.Fatalf("Rewrite() error = %v", err)
	}
	want := strings.Replace(content, "Account.Revenue__c", "Account.NetRevenue__c", 1)
	if got.Content != want {
		t.Errorf("Rewrite() disturbed surrounding bytes:\n got %q\nwant %q", got.Content, want)
	}
}
