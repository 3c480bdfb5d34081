// Package main is the entry point for webrdp.
package main

import (
	"fmt"
	"os"

	"github.com/bodoithienha2026/WebRDP/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
		os.Exit(1)
	}
}
