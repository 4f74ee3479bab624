// =============================================================================
// XLSX Report Engine - Main Entry Point
// =============================================================================
//
// This is the main entry point for the report engine CLI. It delegates to the
// Cobra commands in the cmd package.
//
// USAGE:
//   reports process       - Process the input directory (or the named files)
//   reports combine       - Build a combined cash report
//   reports products      - Product stock report
//   reports orders        - Purchase orders by supplier
//   reports payroll       - Write the stored payroll workbook
//   reports guide         - Show the supported exports
//   reports version       - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : parsing, aggregation, report writing, sessions
//   - pkg/       : file and workspace utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/xlsx-report-engine/cmd"
)

func main() {
	cmd.Execute()
}
