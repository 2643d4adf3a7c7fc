// Copyright (c) 2025 Wingman
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface for the Wingman CLI
// application. It implements subcommands for bulk field-reference
// replacement in Salesforce reports, field metadata extraction, and run
// history inspection using the Cobra CLI framework. The package handles
// command parsing, execution, and provides a rich terminal UI with
// spinners and progress indicators.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"wingman/cli/internal/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	showVersion bool
	targetOrg   string
	verbose     bool
)

// rootCmd represents the base command when called without any subcommands.
// It serves as the entry point for the Wingman CLI application.
var rootCmd = &cobra.Command{
	Use:           "wingman",
	Short:         "Wingman CLI for bulk field-reference replacement in Salesforce reports",
	Long: `Wingman is a command-line tool that rewrites field references across
Salesforce reports in batches, via the sf CLI. It retrieves report
definitions, replaces exact references to one field with another, backs
up every original, and deploys the rewritten definitions back to the org.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			fmt.Printf("wingman %s\n", Version)
			return nil
		}
		// If no flag is set, show help
		return cmd.Help()
	},
}

// Execute runs the CLI application.
// It executes the root command and handles any errors that occur during execution.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Show CLI version information")
	rootCmd.PersistentFlags().StringVarP(&targetOrg, "org", "o", "", "Target org alias or username")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
}

// resolveOrg picks the target org: the --org flag wins, then the
// WINGMAN_DEFAULT_ORG environment variable (a .env file in the working
// directory is honored), then the configured default.
func resolveOrg(cfg config.Config) (string, error) {
	if strings.TrimSpace(targetOrg) != "" {
		return strings.TrimSpace(targetOrg), nil
	}
	// Best effort: a missing .env is not an error
	_ = godotenv.Load()
	if env := strings.TrimSpace(os.Getenv("WINGMAN_DEFAULT_ORG")); env != "" {
		return env, nil
	}
	if cfg.DefaultOrg != "" {
		return cfg.DefaultOrg, nil
	}
	return "", fmt.Errorf("no target org: pass --org, set WINGMAN_DEFAULT_ORG, or configure a default org")
}
