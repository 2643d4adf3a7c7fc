// Copyright (c) 2025 Wingman
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package manifest builds and writes Salesforce package.xml manifests.
// Manifests drive the metadata API retrieve and deploy calls; wingman
// only ever packages Report members.
package manifest

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
)

// APIVersion is the metadata API version stamped into every manifest.
const APIVersion = "65.0"

// Package mirrors the package.xml document structure.
type Package struct {
	XMLName xml.Name `xml:"Package"`
	Xmlns   string   `xml:"xmlns,attr"`
	Types   []Types  `xml:"types"`
	Version string   `xml:"version"`
}

// Types groups members of a single metadata type.
type Types struct {
	Members []string `xml:"members"`
	Name    string   `xml:"name"`
}

// ForReports builds a manifest listing the given report full names
// (folder/DeveloperName) as Report members.
func ForReports(fullNames []string) *Package {
	return &Package{
		Xmlns: "http://soap.sforce.com/2006/04/metadata",
		Types: []Types{{
			Members: fullNames,
			Name:    "Report",
		}},
		Version: APIVersion,
	}
}

// Write serializes the manifest to path, creating parent directories.
func (p *Package) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create manifest dir: %w", err)
	}
	b, err := xml.MarshalIndent(p, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	data := append([]byte(xml.Header), b...)
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

// Read parses a package.xml from disk.
func Read(path string) (*Package, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p Package
	if err := xml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	return &p, nil
}

// Members returns the member names recorded for the given metadata type.
func (p *Package) Members(typeName string) []string {
	for _, t := range p.Types {
		if t.Name == typeName {
			return t.Members
		}
	}
	return nil
}
