// Copyright (c) 2025 Wingman
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sf

import (
	"context"
	"encoding/json"
	"fmt"

	apperrors "wingman/cli/internal/errors"
)

// DeployStatus is one observation of an async deploy job.
type DeployStatus struct {
	ID                string
	Status            string
	Done              bool
	ComponentFailures []ComponentFailure
}

// ComponentFailure is one per-component deploy diagnostic.
type ComponentFailure struct {
	FullName string `json:"fullName"`
	Problem  string `json:"problem"`
}

// deployResponse mirrors `sf project deploy start/report --json`.
type deployResponse struct {
	Result struct {
		ID      string `json:"id"`
		Status  string `json:"status"`
		Done    bool   `json:"done"`
		Details struct {
			ComponentFailures []ComponentFailure `json:"componentFailures"`
		} `json:"details"`
	} `json:"result"`
}

// DeployStart queues an async deploy of the metadata listed in a
// manifest and returns the deploy job id for polling.
func (c *Client) DeployStart(ctx context.Context, manifestPath string) (string, error) {
	out, err := c.runner.Run(ctx, "project", "deploy", "start",
		"--manifest", manifestPath,
		"--target-org", c.org,
		"--async",
		"--json")
	if err != nil {
		return "", err
	}
	var resp deployResponse
	if err := json.Unmarshal(out, &resp); err != nil {
		return "", fmt.Errorf("parse deploy start response: %w", err)
	}
	if resp.Result.ID == "" {
		return "", apperrors.New(apperrors.DeployValidationFailed, "deploy start returned no job id")
	}
	return resp.Result.ID, nil
}

// DeployReport reads the current status of an async deploy job.
func (c *Client) DeployReport(ctx context.Context, jobID string) (*DeployStatus, error) {
	out, err := c.runner.Run(ctx, "project", "deploy", "report",
		"--job-id", jobID,
		"--target-org", c.org,
		"--json")
	if err != nil {
		return nil, err
	}
	var resp deployResponse
	if err := json.Unmarshal(out, &resp); err != nil {
		return nil, fmt.Errorf("parse deploy report response: %w", err)
	}
	return &DeployStatus{
		ID:                resp.Result.ID,
		Status:            resp.Result.Status,
		Done:              resp.Result.Done,
		ComponentFailures: resp.Result.Details.ComponentFailures,
	}, nil
}
