// Package main is the entry point for the notifydal CLI.
package main

import (
	"fmt"
	"os"

	"github.com/bargom/notifydal/cmd/notifydal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
