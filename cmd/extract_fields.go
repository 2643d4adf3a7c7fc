// Copyright (c) 2025 Wingman
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"wingman/cli/internal/config"
	"wingman/cli/internal/extract"
	"wingman/cli/internal/logging"
	"wingman/cli/internal/sf"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	extractObjects   []string
	extractFields    []string
	extractMaxFields int
	extractOutputDir string
)

// extractFieldsCmd exports object field metadata to CSV so operators
// can review the field inventory before planning a replacement.
var extractFieldsCmd = &cobra.Command{
	Use:   "extract-fields",
	Short: "Export object field metadata to CSV",
	Long: `The extract-fields command fetches field metadata for the given objects
through the tooling API and writes one CSV file per run with the
columns Object, Full Name, Namespace, DeveloperName, Label, Type,
Description, and Formula.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		org, err := resolveOrg(cfg)
		if err != nil {
			return err
		}
		if len(extractObjects) == 0 {
			return fmt.Errorf("at least one --objects value is required")
		}

		client := sf.NewClient(org, ".")
		if err := client.ValidateOrg(cmd.Context()); err != nil {
			logging.PresentOrgError(err)
			return err
		}

		path := filepath.Join(extractOutputDir,
			fmt.Sprintf("fields_%s.csv", time.Now().Format("20060102-150405")))

		spinner, _ := pterm.DefaultSpinner.Start("extracting fields")
		opts := extract.Options{
			Objects:   extractObjects,
			Fields:    extractFields,
			MaxFields: extractMaxFields,
			Progress: func(object, field string) {
				if spinner != nil {
					spinner.UpdateText(fmt.Sprintf("extracting %s.%s", object, field))
				}
			},
		}
		rows, err := extract.New(client).Run(cmd.Context(), opts, path)
		if spinner != nil {
			spinner.Stop()
		}
		if err != nil {
			pterm.Println(logging.PresentError("extract", err))
			return err
		}

		title := pterm.NewStyle(pterm.FgGreen, pterm.Bold).Sprint("Extraction Completed")
		details := fmt.Sprintf("Objects: %s\nFields written: %d\nOutput: %s",
			strings.Join(extractObjects, ", "), rows, path)
		pterm.Println(pterm.DefaultBox.WithTitle(title).WithTopPadding(1).WithBottomPadding(1).WithLeftPadding(1).WithRightPadding(1).Sprint(details))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(extractFieldsCmd)
	extractFieldsCmd.Flags().StringSliceVar(&extractObjects, "objects", nil, "Objects to extract fields from (comma-separated)")
	extractFieldsCmd.Flags().StringSliceVar(&extractFields, "specific-fields", nil, "Only extract these field developer names")
	extractFieldsCmd.Flags().IntVar(&extractMaxFields, "max-fields", 0, "Cap the number of fields per object (0 = no cap)")
	extractFieldsCmd.Flags().StringVar(&extractOutputDir, "output-dir", "field-extracts", "Directory to write the CSV into")
	_ = extractFieldsCmd.MarkFlagRequired("objects")
}
