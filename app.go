package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/masmgr/stemhistory/cmd"
)

func main() {
	app := cmd.App()

	// An interrupt stops scheduling new revisions; whatever was measured is still saved.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		stop()
		log.Fatal(err)
	}
}
