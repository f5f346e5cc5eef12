// Package main provides the CLI for the leapdash analytics engine.
package main

import (
	"os"

	"github.com/leapstack-labs/leapdash/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
