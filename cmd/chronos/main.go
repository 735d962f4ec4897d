// Package main provides the chronos MCP server binary. It tracks
// activities and reminders for an AI coding assistant, persisting them
// to a local JSON file, and serves nine tools over stdio.
package main

import (
	"fmt"
	"os"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
