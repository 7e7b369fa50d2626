// Package main is the entry point for the plume CLI.
//
// Usage:
//
//	plume [flags] <command> [args]
//
// Commands:
//
//	chat     - Send a message or start an interactive session
//	version  - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/plumechat/plume/cmd/plume/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
