package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/japaniel/lexigraph/internal/observability"
)

func main() {
	// SIGINT is left to the subcommands: collect turns it into a mode switch.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer cancel()

	err := Execute(ctx, os.Args[1:])
	observability.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}
}
