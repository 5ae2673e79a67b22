package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/timur-ship-it/marketdata-dashboard/internal/di"
	"github.com/timur-ship-it/marketdata-dashboard/pkg/config"
)

// updater runs one refresh batch against the configured backend and exits.
// Schedule it from cron; the dashboard process never writes market data.
func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	refresh, err := di.InitializeRefresh(cfg)
	if err != nil {
		log.Fatalf("refresh initialization failed: %v", err)
	}
	defer refresh.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	res, err := refresh.Run(ctx)
	if err != nil {
		log.Printf("refresh error: %v", err)
		os.Exit(1)
	}
	if res.Failed > 0 {
		log.Printf("refresh finished with failures: fetched=%d failed=%d rows=%d", res.Fetched, res.Failed, res.Rows)
		os.Exit(2)
	}
	log.Printf("refresh ok: fetched=%d rows=%d", res.Fetched, res.Rows)
}
