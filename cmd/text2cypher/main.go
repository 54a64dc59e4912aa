// File: cmd/text2cypher/main.go
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/graphchat/text2cypher/cmd"
	"github.com/graphchat/text2cypher/internal/observability"
)

func main() {
	// Interrupt signals cancel the context so the server and pipeline can
	// shut down gracefully.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := cmd.Execute(ctx)
	observability.Sync()
	if err != nil && !errors.Is(err, context.Canceled) {
		os.Exit(1)
	}
}
