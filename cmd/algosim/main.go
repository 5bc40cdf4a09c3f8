package main

import (
	"os"

	"github.com/wonny/algosim/cmd/algosim/commands"
)

// main is the entry point for the algosim CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/algosim [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
