package server

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/playcast/internal/config"
	"github.com/mantonx/playcast/internal/database"
	"github.com/mantonx/playcast/internal/events"
	"github.com/mantonx/playcast/internal/logger"
	"github.com/mantonx/playcast/internal/modules/modulemanager"

	// Import all modules to trigger their registration
	_ "github.com/mantonx/playcast/internal/modules/playbackmodule"
)

var systemEventBus events.EventBus
var moduleInitialized bool

// SetupRouter configures and returns the main router
func SetupRouter() *gin.Engine {
	r := gin.Default()

	if config.Get().Server.EnableCORS {
		r.Use(corsMiddleware())
	}

	// Initialize event bus system
	if err := initializeEventBus(); err != nil {
		log.Printf("Failed to initialize event bus: %v", err)
	}

	// Initialize module system
	if err := initializeModules(); err != nil {
		log.Printf("Failed to initialize modules: %v", err)
	}

	setupRoutes(r)

	// Let each module attach its API surface
	modulemanager.RegisterRoutes(r)

	return r
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// DisableModule disables a specific module (for development/testing only)
func DisableModule(moduleID string) {
	if moduleInitialized {
		logger.Warn("Attempting to disable module %s after modules have been initialized", moduleID)
		return
	}

	modulemanager.DisableModule(moduleID)
	logger.Info("Module disabled for development: %s", moduleID)
}

// initializeModules sets up the module system and loads all modules
func initializeModules() error {
	if moduleInitialized {
		return nil
	}

	db := database.GetDB()

	// Register the event bus globally so modules can access it
	events.SetGlobalEventBus(systemEventBus)

	if err := modulemanager.LoadAll(db); err != nil {
		return err
	}

	moduleInitialized = true
	logModuleStatus()

	return nil
}

// logModuleStatus logs the loaded modules
func logModuleStatus() {
	modules := modulemanager.ListModules()

	log.Printf("Module system initialized with %d modules", len(modules))
	for _, module := range modules {
		coreStatus := "no"
		if module.Core() {
			coreStatus = "yes"
		}
		log.Printf("  module %-25s id=%-20s core=%s", module.Name(), module.ID(), coreStatus)
	}
}

// GetEventBus returns the global event bus instance
func GetEventBus() events.EventBus {
	return systemEventBus
}

// Shutdown stops modules and the event bus in order
func Shutdown(ctx context.Context) error {
	if err := modulemanager.ShutdownAll(ctx); err != nil {
		log.Printf("Module shutdown reported errors: %v", err)
	}
	return shutdownEventBus(ctx)
}

func shutdownEventBus(ctx context.Context) error {
	if systemEventBus == nil {
		return nil
	}

	shutdownEvent := events.NewSystemEvent(
		events.EventSystemStopped,
		"System Stopped",
		"Playcast is shutting down",
	)
	// Best effort; the bus drains on Stop
	systemEventBus.PublishAsync(shutdownEvent)

	return systemEventBus.Stop(ctx)
}

// Event logger implementation for the event bus
type eventLogger struct{}

func (l *eventLogger) Info(msg string, args ...interface{}) {
	log.Printf("[EVENT-INFO] "+msg, args...)
}

func (l *eventLogger) Error(msg string, args ...interface{}) {
	log.Printf("[EVENT-ERROR] "+msg, args...)
}

func (l *eventLogger) Warn(msg string, args ...interface{}) {
	log.Printf("[EVENT-WARN] "+msg, args...)
}

func (l *eventLogger) Debug(msg string, args ...interface{}) {
	log.Printf("[EVENT-DEBUG] "+msg, args...)
}

// initializeEventBus sets up the system-wide event bus
func initializeEventBus() error {
	busConfig := events.DefaultEventBusConfig()

	storage := events.NewDatabaseEventStorage(database.GetDB())
	metrics := events.NewBasicEventMetrics()

	systemEventBus = events.NewEventBus(busConfig, &eventLogger{}, storage, metrics)

	ctx := context.Background()
	if err := systemEventBus.Start(ctx); err != nil {
		return err
	}

	startupEvent := events.NewSystemEvent(
		events.EventSystemStarted,
		"System Started",
		"Playcast has started successfully",
	)
	startupEvent.Data = map[string]interface{}{
		"version": "1.0.0",
	}
	if err := systemEventBus.PublishAsync(startupEvent); err != nil {
		log.Printf("Failed to publish startup event: %v", err)
	}

	return nil
}
