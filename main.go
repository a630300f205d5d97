package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	larkmd "larkmd/internal/app"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("larkmd: %v", err)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	app, err := larkmd.New()
	if err != nil {
		return err
	}
	defer app.Close()

	return app.Run(ctx, os.Args[1:])
}
