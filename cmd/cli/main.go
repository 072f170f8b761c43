// Package main is the entry point for srcctl, the terminal client for the
// srcbook booking API.
package main

import (
	"os"

	"srcbook/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
