// Command resticdu is an interactive disk-usage analyzer over a
// restic repository: it aggregates every snapshot's file tree into a
// single navigable view backed by a persistent cache, without ever
// writing back to the repository itself.
package main

import (
	"context"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
