// Command ingest drives the upload workflow from a terminal: inspect a
// sheet, preview a proposed mapping, confirm it and sweep enrichment.
// Every command prints the same JSON envelope the HTTP API returns.
//
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
