// Command sqliter manages schema-defined records in a SQLite database.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tinywasm/sqliter/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
