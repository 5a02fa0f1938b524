package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mantonx/playcast/internal/config"
	"github.com/mantonx/playcast/internal/database"
	"github.com/mantonx/playcast/internal/server"
)

func main() {
	fmt.Println("=======================================")
	fmt.Println("  Playcast - Stream Decision Service   ")
	fmt.Println("=======================================")

	// Initialize configuration system first
	configPath := os.Getenv("PLAYCAST_CONFIG_PATH")
	if configPath == "" {
		if _, err := os.Stat("./playcast.yaml"); err == nil {
			configPath = "./playcast.yaml"
		}
	}

	if err := config.Load(configPath); err != nil {
		log.Printf("Warning: failed to load configuration from %s: %v", configPath, err)
		log.Printf("Using default configuration")
	} else if configPath != "" {
		log.Printf("Configuration loaded from: %s", configPath)
	} else {
		log.Printf("Using default configuration")
	}

	// Initialize database
	database.Initialize()
	db := database.GetDB()
	if db == nil {
		log.Fatal("Failed to initialize database")
	}

	// Setup router with all registered modules
	r := server.SetupRouter()

	cfg := config.Get()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("\nShutting down gracefully...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}

		cancel()
	}()

	log.Printf("Starting Playcast server on %s:%d", cfg.Server.Host, cfg.Server.Port)
	err := srv.ListenAndServe()

	if err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}

	<-ctx.Done()
	log.Println("Server shutdown complete")
}
