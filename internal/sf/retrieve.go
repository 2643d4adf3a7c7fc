// Copyright (c) 2025 Wingman
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sf

import (
	"context"
)

// Retrieve pulls the metadata listed in a manifest into the project's
// source tree. The sf CLI blocks until the retrieve completes.
func (c *Client) Retrieve(ctx context.Context, manifestPath string) error {
	_, err := c.runner.Run(ctx, "project", "retrieve", "start",
		"--manifest", manifestPath,
		"--target-org", c.org,
		"--json")
	return err
}
