// Command absence-desk is the backend process of the absence desk desktop
// application. The shell spawns it and talks JSON-RPC over stdin and stdout.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"absence-desk/internal/cli"
)

func main() {
	// Cancel the event loop on shutdown signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := cli.Execute(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
