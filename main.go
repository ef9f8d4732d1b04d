package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/NamanBalaji/signedplay/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	code := cli.New(os.Stdout, os.Stderr).Run(ctx, os.Args[1:])

	stop()
	os.Exit(code)
}
