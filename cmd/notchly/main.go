// Package main is the entry point for the notchly CLI.
package main

import (
	"os"

	"github.com/notchly-app/notchly/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
