// Package main is the entry point for the csvmd CLI.
package main

import (
	"os"

	"github.com/jmylchreest/csvmd/cmd/csvmd/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
