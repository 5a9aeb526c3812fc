package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ribasushi/go-fil-spid/pkg/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := app.Run(ctx, os.Args)
	stop()

	os.Exit(code)
}
