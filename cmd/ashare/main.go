package main

import (
	"os"

	"github.com/wonny/ashare-daily/backend/cmd/ashare/commands"
)

// main is the entry point for the ashare CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/ashare [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
