// Copyright (c) 2025 Wingman
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sf

import (
	"context"
	"encoding/json"
	"fmt"

	apperrors "wingman/cli/internal/errors"
)

// Client is an org-scoped wrapper over the sf CLI.
type Client struct {
	org    string
	runner Runner
}

// NewClient creates a client for the given org alias, running sf in
// projectDir (retrieve writes source files relative to it).
func NewClient(org, projectDir string) *Client {
	return &Client{org: org, runner: cliRunner{dir: projectDir}}
}

// NewClientWithRunner creates a client with a custom runner, used by
// tests to fake subprocess execution.
func NewClientWithRunner(org string, r Runner) *Client {
	return &Client{org: org, runner: r}
}

// Org returns the target org alias.
func (c *Client) Org() string { return c.org }

// orgListResponse mirrors `sf org list --json`.
type orgListResponse struct {
	Result struct {
		Other         []orgEntry `json:"other"`
		Sandboxes     []orgEntry `json:"sandboxes"`
		NonScratchOrg []orgEntry `json:"nonScratchOrgs"`
		DevHubs       []orgEntry `json:"devHubs"`
		ScratchOrgs   []orgEntry `json:"scratchOrgs"`
	} `json:"result"`
}

type orgEntry struct {
	Alias string `json:"alias"`
}

// ValidateOrg checks that the sf CLI is available and knows the org
// alias. It runs once at startup, before any pipeline work.
func (c *Client) ValidateOrg(ctx context.Context) error {
	out, err := c.runner.Run(ctx, "org", "list", "--json")
	if err != nil {
		return err
	}
	var resp orgListResponse
	if err := json.Unmarshal(out, &resp); err != nil {
		return fmt.Errorf("parse org list: %w", err)
	}
	all := resp.Result.Other
	all = append(all, resp.Result.Sandboxes...)
	all = append(all, resp.Result.NonScratchOrg...)
	all = append(all, resp.Result.DevHubs...)
	all = append(all, resp.Result.ScratchOrgs...)
	for _, o := range all {
		if o.Alias == c.org {
			return nil
		}
	}
	return apperrors.New(apperrors.AuthFailed,
		fmt.Sprintf("org alias %q not found; run 'sf org login web --alias %s' first", c.org, c.org))
}

// TestConnection probes the org with a trivial query.
func (c *Client) TestConnection(ctx context.Context) error {
	_, err := c.Query(ctx, "SELECT Id FROM User LIMIT 1", false)
	return err
}
