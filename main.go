// ./main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/xkilldash9x/lister-cli/cmd"
)

// main is the entry point for the lister CLI.
func main() {
	// Every stage command inherits this signal-aware context, so a Ctrl-C
	// drains worker pools instead of killing them mid-write.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.ExecuteContext(ctx)
}
