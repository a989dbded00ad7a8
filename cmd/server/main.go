// cmd/server/main.go
package main

import (
	"log"
	"net/http"

	"github.com/bathywatch/backend/config"
	"github.com/bathywatch/backend/database"
	"github.com/bathywatch/backend/handlers"
	"github.com/bathywatch/backend/notifier"
	"github.com/bathywatch/backend/services"
)

func main() {
	log.Println("Starting BathyWatch API server...")

	configPath, err := config.FindConfigFile()
	if err != nil {
		log.Fatalf("Config file not found: %v", err)
	}
	if err := config.LoadConfig(configPath); err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}
	log.Printf("Configuration loaded. Server port: %s, DB name: %s",
		config.AppConfig.Server.Port, config.AppConfig.Database.DBName)

	if err := database.InitDB(config.AppConfig.Database); err != nil {
		log.Fatalf("Error initializing database: %v", err)
	}
	defer database.CloseDB()

	if err := database.InitSchema(); err != nil {
		log.Fatalf("Error initializing schema: %v", err)
	}

	runner := services.NewCycleRunner(notifier.NewChannelNotifier())
	router := handlers.NewRouter(runner, database.DB.Ping)

	serverAddr := ":" + config.AppConfig.Server.Port
	log.Printf("Server starting on http://localhost%s\n", serverAddr)
	if err := http.ListenAndServe(serverAddr, router); err != nil {
		log.Fatalf("Error starting server: %v", err)
	}
}
