package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Paxto2002/project-vidora/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
