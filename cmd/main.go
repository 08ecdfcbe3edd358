package main

import (
	"context"
	"os"

	"github.com/asynkron/easypatch/internal/cli"
)

// main wires the standard streams into the CLI shell; everything else lives
// in internal/cli so it can be exercised from tests.
func main() {
	os.Exit(cli.Run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
