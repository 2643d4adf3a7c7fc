// Package main is the entry point for the Wingman CLI application.
// It provides bulk field-reference replacement for Salesforce reports
// through the sf CLI.
package main

import (
	"wingman/cli/cmd"
)

// main is the entry point for the Wingman CLI application.
// It initializes and executes the command-line interface.
func main() {
	cmd.Execute()
}
