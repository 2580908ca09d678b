// Package main is the entry point for the tabtriage CLI.
package main

import (
	"os"

	"github.com/thebtf/tabtriage/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
