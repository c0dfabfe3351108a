// Command server runs the patron request API and the tracking scheduler.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/openlibraryenvironment/dcb-service-sub001/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("server: %v", err)
	}
}
