// Package main provides the entry point for the htmlstore CLI.
package main

import (
	"os"

	"github.com/pjamar/htmls-to-datasette/cmd/htmlstore/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
