package main

import (
	"os"

	"github.com/bizmatters/agent-builder/artifact-orchestrator/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
