package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"FeedHarvester/internal/app"
	"FeedHarvester/internal/config"
	"FeedHarvester/internal/logging"
	"FeedHarvester/pkg/logger"
)

func main() {
	bootLog := logger.New("feedharvester")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	cfg := config.Load()
	slogger := logging.New(cfg.Logging.Level)

	application := app.New(cfg, slogger, nil)

	ok, err := application.Run(ctx)
	if err != nil {
		bootLog.Printf("run aborted: %v", err)
		os.Exit(1)
	}

	// Partial success is success; only an all-sources-failed batch exits nonzero.
	if !ok {
		os.Exit(1)
	}
}
