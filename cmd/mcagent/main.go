// mcagent: behavior mining MCP server for MineContext
//
// Mines recurring behaviors from MineContext activity records and turns them
// into evidence packs and PRD bundles for coding agents.
//
// Usage:
//
//	mcagent serve                 # Start MCP server (stdio transport)
//	mcagent http                  # Start the local HTTP service
//	mcagent mine --days 14        # List behavior candidates
//	mcagent evidence candidate_0  # Show the evidence pack for a candidate
//	mcagent export candidate_0    # Write a PRD/spec/evidence bundle
//	mcagent inspect -- make test  # Run a command, record context on failure
package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var exit *exitCodeError
		if errors.As(err, &exit) {
			os.Exit(exitStatus(exit.code))
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// exitStatus maps an inspected exit code onto a process status; a timeout
// (-1) becomes 1.
func exitStatus(code int) int {
	if code <= 0 || code > 255 {
		return 1
	}
	return code
}
