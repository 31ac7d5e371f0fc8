// Package main is the production entry point for the Cadence music player.
//
// Cadence plays local files and folders from the command line and exposes
// itself to the desktop over MPRIS:
// - Event-driven communication between the player and its observers
// - Dependency injection for testability
// - Settings and the last playlist persisted between runs
//
// Build:
//
//	go build -o build/cadence ./cmd
//
// Run:
//
//	./build/cadence ~/Music/album
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "cadence: %v\n", err)
		os.Exit(1)
	}
}
