package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"attritionboard/internal/config"
	"attritionboard/internal/container"
)

// Standalone JSON API without the dashboard pages.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	profile, err := config.LoadProfile(cfg.Data.ProfileFile)
	if err != nil {
		log.Fatalf("Failed to load dashboard profile: %v", err)
	}

	c, err := container.New(cfg, profile)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	c.Warm(context.Background())

	log.Printf("Starting API server on :%s", cfg.Server.APIPort)
	if err := c.API.Start(":" + cfg.Server.APIPort); err != nil {
		log.Fatal("Server failed:", err)
	}
}
