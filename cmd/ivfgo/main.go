// Package main is the entry point for the ivfgo CLI.
//
// Usage:
//
//	ivfgo [flags] <command> [args]
//
// Commands:
//
//	serve    - Run the HTTP API
//	bench    - Measure recall and QPS on synthetic clustered data
//	version  - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/hupe1980/ivfgo/cmd/ivfgo/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
