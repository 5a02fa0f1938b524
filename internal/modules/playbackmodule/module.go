package playbackmodule

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/playcast/internal/config"
	"github.com/mantonx/playcast/internal/database"
	"github.com/mantonx/playcast/internal/events"
	"github.com/mantonx/playcast/internal/modules/modulemanager"
	"gorm.io/gorm"
)

// Module represents the playback module compatible with module manager
type Module struct {
	id          string
	name        string
	version     string
	core        bool
	initialized bool
	db          *gorm.DB
	eventBus    events.EventBus
	manager     *Manager
	handler     *APIHandler
}

// Auto-register the module when imported
func init() {
	Register()
}

// Register registers this module with the module system
func Register() {
	playbackModule := &Module{
		id:      "system.playback",
		name:    "Playback Manager",
		version: "1.0.0",
		core:    true,
	}
	modulemanager.Register(playbackModule)
}

// ID returns the module ID
func (m *Module) ID() string {
	return m.id
}

// Name returns the module name
func (m *Module) Name() string {
	return m.name
}

// GetVersion returns the module version
func (m *Module) GetVersion() string {
	return m.version
}

// Core returns whether this is a core module
func (m *Module) Core() bool {
	return m.core
}

// IsInitialized returns whether the module is initialized
func (m *Module) IsInitialized() bool {
	return m.initialized
}

// Migrate performs any pending migrations
func (m *Module) Migrate(db *gorm.DB) error {
	log.Println("INFO: Migrating playback module schema")
	if err := db.AutoMigrate(&DeviceProfileRecord{}); err != nil {
		return fmt.Errorf("failed to migrate device profile schema: %w", err)
	}
	return nil
}

// Init initializes the playback module components
func (m *Module) Init() error {
	log.Println("INFO: Initializing playback module")

	m.db = database.GetDB()
	m.eventBus = events.GetGlobalEventBus()

	cfg := config.Get()
	m.manager = NewManager(m.db, m.eventBus, &ManagerConfig{
		ProfilesDir:        cfg.Playback.ProfilesDir,
		WatchProfiles:      cfg.Playback.WatchProfiles,
		DefaultProfileName: cfg.Playback.DefaultProfile,
	})
	if err := m.manager.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize playback manager: %w", err)
	}
	m.handler = NewAPIHandler(m.manager)

	m.initialized = true
	log.Println("INFO: Playback module initialized successfully")
	return nil
}

// RegisterRoutes registers the playback module API routes
func (m *Module) RegisterRoutes(router *gin.Engine) {
	if m.handler == nil {
		log.Println("WARN: playback routes requested before initialization")
		return
	}
	registerRoutes(router, m.handler)
}

// Shutdown gracefully shuts down the playback module
func (m *Module) Shutdown(ctx context.Context) error {
	log.Println("INFO: Shutting down playback module")
	if m.manager != nil {
		if err := m.manager.Shutdown(); err != nil {
			return err
		}
	}
	m.initialized = false
	return nil
}

// GetManager returns the playback manager for in-process callers
func (m *Module) GetManager() *Manager {
	return m.manager
}
