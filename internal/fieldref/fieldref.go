// Copyright (c) 2025 Wingman
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package fieldref parses and validates qualified field references.
// A field reference is an "Object.Field" token as it appears inside
// report definitions, e.g. "Account.Revenue__c". Refs are immutable
// value types with structural equality.
package fieldref

import (
	"fmt"
	"strings"
)

// Ref identifies a field on an object.
type Ref struct {
	Object string
	Field  string
}

// Qualified returns the "Object.Field" token for the reference.
func (r Ref) Qualified() string {
	return r.Object + "." + r.Field
}

func (r Ref) String() string { return r.Qualified() }

// IsZero reports whether the reference is empty.
func (r Ref) IsZero() bool { return r.Object == "" && r.Field == "" }

// ParseError represents an error that occurred during reference parsing.
type ParseError struct {
	Token  string
	Reason string
	Hint   string
}

func (e *ParseError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("invalid field reference: %s\nHint: %s", e.Reason, e.Hint)
	}
	return fmt.Sprintf("invalid field reference: %s", e.Reason)
}

// NewParseError creates a new ParseError.
func NewParseError(token, reason, hint string) *ParseError {
	return &ParseError{
		Token:  token,
		Reason: reason,
		Hint:   hint,
	}
}

// Parse parses an "Object.Field" token into a Ref.
// This is the main entry point for reference parsing.
func Parse(token string) (Ref, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Ref{}, NewParseError(token, "empty reference", "provide a reference like Account.Revenue__c")
	}

	parts := strings.Split(token, ".")
	if len(parts) != 2 {
		return Ref{}, NewParseError(token, "expected exactly one dot separating object and field", "use the form Object.Field, e.g. Account.Revenue__c")
	}

	object, field := parts[0], parts[1]
	if err := checkIdentifier(token, "object", object); err != nil {
		return Ref{}, err
	}
	if err := checkIdentifier(token, "field", field); err != nil {
		return Ref{}, err
	}

	return Ref{Object: object, Field: field}, nil
}

// Validate checks a token without returning the parsed reference.
func Validate(token string) error {
	_, err := Parse(token)
	return err
}

// checkIdentifier validates one side of the dot as an API name.
func checkIdentifier(token, side, name string) error {
	if name == "" {
		return NewParseError(token, "missing "+side+" name", "use the form Object.Field, e.g. Account.Revenue__c")
	}
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r == '_':
		case r >= '0' && r <= '9':
			if i == 0 {
				return NewParseError(token, side+" name starts with a digit", "API names start with a letter")
			}
		default:
			return NewParseError(token, fmt.Sprintf("%s name contains %q", side, r), "API names use letters, digits, and underscores only")
		}
	}
	return nil
}
