// Copyright (c) 2025 Wingman
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"os"
	"time"

	"wingman/cli/internal/config"
	"wingman/cli/internal/logging"
	"wingman/cli/internal/sf"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// testConnectionCmd probes the target org: it checks that the sf CLI is
// installed, that the org alias is known, and that a trivial query
// succeeds against it.
var testConnectionCmd = &cobra.Command{
	Use:   "test-connection",
	Short: "Verify that the target org is reachable",

	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		org, err := resolveOrg(cfg)
		if err != nil {
			return err
		}

		client := sf.NewClient(org, ".")
		stop := startInlineSpinner(os.Stderr, "checking org "+org, []string{"|", "/", "-", "\\"}, 120*time.Millisecond)
		err = client.ValidateOrg(cmd.Context())
		if err == nil {
			err = client.TestConnection(cmd.Context())
		}
		stop()
		if err != nil {
			logging.PresentOrgError(err)
			return err
		}
		pterm.Success.Printf("Connected to %s\n", org)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(testConnectionCmd)
}
