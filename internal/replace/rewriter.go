// Copyright (c) 2025 Wingman
// Licensed under the MIT License. See LICENSE file in the project root for details.

package replace

import (
	"encoding/xml"
	"io"
	"strings"
	"unicode/utf8"

	apperrors "wingman/cli/internal/errors"
	"wingman/cli/internal/fieldref"
)

// RewriteResult is the outcome of rewriting one report definition.
type RewriteResult struct {
	Content  string
	Found    int
	Replaced int
}

// Rewrite performs token-exact substitution of oldField with newField
// inside a report definition. Only fully qualified occurrences with
// clean token boundaries are touched; similarly prefixed or suffixed
// names are left alone, and unrelated content is preserved byte for
// byte. Zero matches is a valid outcome, not an error.
//
// Rewriting is idempotent: applying the same plan to already-rewritten
// content finds nothing and returns the input unchanged.
func Rewrite(content string, oldField, newField fieldref.Ref) (RewriteResult, error) {
	if err := checkWellFormed(content); err != nil {
		return RewriteResult{}, apperrors.Wrap(apperrors.MalformedReport, "report definition is not well-formed XML", err)
	}

	out, n := replaceToken(content, oldField.Qualified(), newField.Qualified())
	return RewriteResult{Content: out, Found: n, Replaced: n}, nil
}

// checkWellFormed walks the XML token stream to reject definitions the
// org would not accept back on deploy.
func checkWellFormed(content string) error {
	dec := xml.NewDecoder(strings.NewReader(content))
	for {
		_, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// replaceToken substitutes boundary-exact occurrences of oldTok with
// newTok. When nothing matches the input string is returned as-is.
func replaceToken(content, oldTok, newTok string) (string, int) {
	var b strings.Builder
	count := 0
	i := 0
	for {
		j := strings.Index(content[i:], oldTok)
		if j < 0 {
			break
		}
		j += i
		end := j + len(oldTok)
		if boundaryBefore(content, j) && boundaryAfter(content, end) {
			b.WriteString(content[i:j])
			b.WriteString(newTok)
			count++
		} else {
			b.WriteString(content[i:end])
		}
		i = end
	}
	if count == 0 {
		return content, 0
	}
	b.WriteString(content[i:])
	return b.String(), count
}

// boundaryBefore reports whether position j starts a fresh token. A
// preceding identifier rune means the match is a suffix of a longer
// name; a preceding dot means a different qualification.
func boundaryBefore(s string, j int) bool {
	if j == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:j])
	return !isIdentRune(r) && r != '.'
}

// boundaryAfter reports whether the token ends cleanly at position end.
func boundaryAfter(s string, end int) bool {
	if end == len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[end:])
	return !isIdentRune(r)
}

func isIdentRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '_':
		return true
	}
	return false
}
