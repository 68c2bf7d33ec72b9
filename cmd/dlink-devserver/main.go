package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/vadimbarashkov/dlink/internal/app"
	"github.com/vadimbarashkov/dlink/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		panic(err)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.LoadEnv()
	if err != nil {
		return err
	}

	logger := cfg.Log.NewLogger("dlink-devserver", os.Stdout)

	return app.Run(ctx, cfg, logger)
}
