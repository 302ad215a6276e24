package main

import (
	"os"

	"signalconfig/internal/cli"
)

// main runs the signalconfig command tree.
// Params: process arguments.
// Returns: exit code 1 on command failure.
func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
