// Copyright (c) 2025 Wingman
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package sf wraps the Salesforce CLI (sf) as the org connector
// capability. Every call shells out to sf with --json and decodes the
// response; wingman never speaks the platform's auth or metadata
// protocols itself. A Runner seam lets tests substitute canned output
// for subprocess execution.
package sf

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os/exec"
	"strings"

	apperrors "wingman/cli/internal/errors"
)

// Runner executes one sf CLI invocation and returns its stdout.
type Runner interface {
	Run(ctx context.Context, args ...string) ([]byte, error)
}

// cliRunner runs the real sf binary.
type cliRunner struct {
	// dir is the project directory sf runs in; retrieve writes source
	// files relative to it.
	dir string
}

func (r cliRunner) Run(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "sf", args...)
	cmd.Dir = r.dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return stdout.Bytes(), nil
	}
	if errors.Is(err, exec.ErrNotFound) {
		return nil, apperrors.Wrap(apperrors.CLIUnavailable,
			"Salesforce CLI (sf) is not installed or not on PATH", err)
	}
	if ctx.Err() != nil {
		return nil, apperrors.Wrap(apperrors.RateLimited, "org call timed out", ctx.Err())
	}
	return stdout.Bytes(), classify(stdout.Bytes(), stderr.String(), err)
}

// cliError is the error envelope sf prints on stdout with --json.
type cliError struct {
	Status  int    `json:"status"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

// classify maps an sf CLI failure onto a typed error kind. The CLI
// reports errors as JSON on stdout when invoked with --json, and as
// plain text on stderr otherwise, so both are sniffed.
func classify(stdout []byte, stderr string, cause error) error {
	var ce cliError
	detail := strings.TrimSpace(stderr)
	if err := json.Unmarshal(stdout, &ce); err == nil && ce.Message != "" {
		detail = ce.Name + ": " + ce.Message
	}
	lower := strings.ToLower(detail)

	switch {
	case strings.Contains(lower, "invalid_session_id"),
		strings.Contains(lower, "expired access"),
		strings.Contains(lower, "refreshtokenautherror"),
		strings.Contains(lower, "namedorgnotfound"),
		strings.Contains(lower, "no authorization"):
		return apperrors.Wrap(apperrors.AuthFailed, detail, cause)
	case strings.Contains(lower, "request_limit_exceeded"),
		strings.Contains(lower, "etimedout"),
		strings.Contains(lower, "econnreset"),
		strings.Contains(lower, "socket hang up"),
		strings.Contains(lower, "timed out"),
		strings.Contains(lower, "service unavailable"):
		return apperrors.Wrap(apperrors.RateLimited, detail, cause)
	case strings.Contains(lower, "invalid_type"),
		strings.Contains(lower, "invalid_field"),
		strings.Contains(lower, "no such column"),
		strings.Contains(lower, "not found"):
		return apperrors.Wrap(apperrors.NotFound, detail, cause)
	}
	if detail == "" {
		return cause
	}
	return errors.New(detail)
}
