// Package main provides the entry point for the panamax-search CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/panamax-search/cmd/panamax-search/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
