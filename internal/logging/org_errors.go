// Copyright (c) 2025 Wingman
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"

	"wingman/cli/internal/errors"
)

// FormatOrgError formats an org-level failure in a user-friendly way,
// keyed on the typed error kind attached by the sf client.
func FormatOrgError(err error) string {
	kind := errors.KindOf(err)

	var builder strings.Builder

	builder.WriteString(pterm.NewStyle(pterm.FgRed, pterm.Bold).Sprint("Org Call Failed"))
	builder.WriteString("\n\n")

	switch kind {
	case errors.AuthFailed:
		builder.WriteString("Authentication with the Salesforce org failed.\n")
		builder.WriteString("To fix this:\n")
		builder.WriteString("  • Run 'sf org login web --alias <alias>' to authenticate again\n")
		builder.WriteString("  • Your session may have expired\n")

	case errors.CLIUnavailable:
		builder.WriteString("The Salesforce CLI (sf) could not be found.\n")
		builder.WriteString("To fix this:\n")
		builder.WriteString("  • Install it from https://developer.salesforce.com/tools/salesforcecli\n")
		builder.WriteString("  • Make sure 'sf' is on your PATH\n")

	case errors.RateLimited:
		builder.WriteString("The org rejected or timed out the request.\n")
		builder.WriteString("This could be due to:\n")
		builder.WriteString("  • API request limits on the org\n")
		builder.WriteString("  • Slow or unstable internet connection\n")
		builder.WriteString("  • The org taking too long to respond\n")

	case errors.NotFound:
		builder.WriteString("The referenced object or field does not exist in the org.\n")
		builder.WriteString("Check:\n")
		builder.WriteString("  • The Object.Field spelling, including the __c suffix\n")
		builder.WriteString("  • That you are targeting the right org alias\n")

	case errors.DeployValidationFailed:
		builder.WriteString("The org rejected the deploy with component errors.\n")
		builder.WriteString("Nothing from the failed batch was saved to the org.\n")

	default:
		builder.WriteString("The org call was interrupted.\n")
		builder.WriteString("This could mean:\n")
		builder.WriteString("  • Network connection dropped\n")
		builder.WriteString("  • The org is unavailable or under maintenance\n")
	}

	builder.WriteString("\n")

	if kind == errors.AuthFailed {
		builder.WriteString(pterm.NewStyle(pterm.FgYellow).Sprint("→ Please run 'sf org login web' and try again"))
	} else {
		builder.WriteString(pterm.NewStyle(pterm.FgYellow).Sprint("→ Please re-run the command; confirmed batches are skipped with --resume"))
	}

	builder.WriteString("\n")

	if err != nil && strings.TrimSpace(err.Error()) != "" {
		builder.WriteString("\n")
		builder.WriteString(pterm.NewStyle(pterm.FgGray).Sprint("Technical details: " + Mask(err.Error())))
	}

	return builder.String()
}

// PresentOrgError displays a formatted org failure.
func PresentOrgError(err error) {
	fmt.Println()
	fmt.Println(FormatOrgError(err))
	fmt.Println()
}
