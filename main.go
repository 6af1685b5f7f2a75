// =============================================================================
// SAP Partner Import - Main Entry Point
// =============================================================================
//
// USAGE:
//   sap-import process       - Convert all extracts in the input directory
//   sap-import validate      - Check extracts without writing anything
//   sap-import contract-log  - Show the contract module log of a term
//   sap-import version       - Display the application version
//
// ARCHITECTURE:
//   - cmd/       : CLI command definitions (Cobra)
//   - internal/  : Import pipeline, partner grouping, persistence
//   - pkg/       : File management shared by the commands
//   - profiles/  : Import profiles (one YAML file per SAP source)
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/sap-partner-import/cmd"
)

func main() {
	cmd.Execute()
}
