// cmd/worker/main.go
//
// One-shot poll cycle over every bounding box, meant to be invoked by cron.
// Exits 0 when every box was checked cleanly, 1 when any box failed (the
// failures are per-box and logged; they never abort the rest of the cycle).
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/bathywatch/backend/config"
	"github.com/bathywatch/backend/database"
	"github.com/bathywatch/backend/notifier"
	"github.com/bathywatch/backend/services"
)

func main() {
	log.Println("Starting BathyWatch poll worker...")

	configPath, err := config.FindConfigFile()
	if err != nil {
		log.Fatalf("Config file not found: %v", err)
	}
	if err := config.LoadConfig(configPath); err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	if err := database.InitDB(config.AppConfig.Database); err != nil {
		log.Fatalf("Error initializing database: %v", err)
	}
	defer database.CloseDB()

	if err := database.InitSchema(); err != nil {
		log.Fatalf("Error initializing schema: %v", err)
	}

	// A shutdown signal interrupts the cycle; boxes not yet marked checked
	// are retried whole on the next invocation.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := services.NewCycleRunner(notifier.NewChannelNotifier())
	stats, err := runner.Run(ctx)
	if err != nil {
		log.Printf("ERROR Worker: Poll cycle aborted: %v\n", err)
		database.CloseDB()
		os.Exit(1)
	}

	if stats.BoxesFailed > 0 {
		database.CloseDB()
		os.Exit(1)
	}
}
