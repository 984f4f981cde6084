package main

import (
	"context"
	"log"
	"net/http"
	_ "net/http/pprof"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"attritionboard/internal/config"
	"attritionboard/internal/container"
	"attritionboard/ui"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	gin.SetMode(appConfig.Server.GinMode)

	profile, err := config.LoadProfile(appConfig.Data.ProfileFile)
	if err != nil {
		log.Fatalf("Failed to load dashboard profile: %v", err)
	}

	appContainer, err := container.New(appConfig, profile)
	if err != nil {
		log.Fatalf("Failed to create application container: %v", err)
	}
	appContainer.Warm(context.Background())

	server, err := ui.NewServer(appContainer.Source, appContainer.Pipeline, appContainer.API)
	if err != nil {
		log.Fatalf("Failed to initialize server: %v", err)
	}

	// Start pprof server for performance profiling
	if appConfig.Profiling.Enabled {
		go func() {
			log.Printf("Performance profiling server starting on :%s", appConfig.Profiling.Port)
			log.Printf("View profiles: go tool pprof -http=:8082 http://localhost:%s/debug/pprof/profile?seconds=30", appConfig.Profiling.Port)
			if err := http.ListenAndServe(":"+appConfig.Profiling.Port, nil); err != nil {
				log.Printf("pprof server failed: %v", err)
			}
		}()
	}

	log.Printf("Starting %s on port %s (source %s)", profile.Title, appConfig.Server.Port, appConfig.Data.Source)
	log.Fatal(server.Start(":" + appConfig.Server.Port))
}
