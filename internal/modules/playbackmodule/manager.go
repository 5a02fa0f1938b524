package playbackmodule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/playcast/internal/events"
	"github.com/mantonx/playcast/internal/logger"
	"github.com/mantonx/playcast/internal/modules/playbackmodule/core"
	"gorm.io/gorm"
)

// ErrProfileNotFound is returned when a request names a stored profile that
// does not exist.
var ErrProfileNotFound = errors.New("device profile not found")

// ErrUnsupportedMediaType is returned for media kinds the engine cannot
// negotiate.
var ErrUnsupportedMediaType = errors.New("unsupported media type")

// Manager owns playback negotiation: it resolves device profiles, runs the
// stream builder, and renders capability headers for the chosen stream.
type Manager struct {
	logger   hclog.Logger
	db       *gorm.DB
	eventBus events.EventBus
	ctx      context.Context
	cancel   context.CancelFunc

	builder *core.StreamBuilder
	store   *ProfileStore

	config      *ManagerConfig
	initialized bool
}

// ManagerConfig contains configuration for the playback manager
type ManagerConfig struct {
	// ProfilesDir holds yaml device profiles imported at startup and
	// reloaded on change. Empty disables the import.
	ProfilesDir string

	// WatchProfiles keeps ProfilesDir under observation after the
	// initial import
	WatchProfiles bool

	// DefaultProfileName is stored at startup when no profile of that
	// name exists, so fresh installs can negotiate immediately
	DefaultProfileName string
}

// NewManager creates a new playback manager
func NewManager(db *gorm.DB, eventBus events.EventBus, managerConfig *ManagerConfig) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	if managerConfig == nil {
		managerConfig = &ManagerConfig{
			DefaultProfileName: "default",
		}
	}

	log := hclog.New(&hclog.LoggerOptions{
		Name:  "playback-manager",
		Level: hclog.Info,
	})

	return &Manager{
		logger:   log,
		db:       db,
		eventBus: eventBus,
		ctx:      ctx,
		cancel:   cancel,
		builder:  core.NewStreamBuilder(core.PermitAllTranscoder{}, log),
		store:    NewProfileStore(db, eventBus, log),
		config:   managerConfig,
	}
}

// Initialize sets up the playback manager
func (m *Manager) Initialize() error {
	logger.Info("Initializing playback manager")

	if m.initialized {
		return nil
	}

	if m.config.DefaultProfileName != "" {
		if err := m.ensureDefaultProfile(); err != nil {
			return fmt.Errorf("failed to seed default profile: %w", err)
		}
	}

	if m.config.ProfilesDir != "" {
		if err := m.store.LoadDirectory(m.config.ProfilesDir); err != nil {
			return fmt.Errorf("failed to import profile directory: %w", err)
		}
		if m.config.WatchProfiles {
			if err := m.store.Watch(m.ctx, m.config.ProfilesDir); err != nil {
				// Negotiation works without hot reload
				m.logger.Warn("profile hot reload disabled", "error", err)
			}
		}
	}

	if m.eventBus != nil {
		initEvent := events.NewSystemEvent(
			events.EventInfo,
			"Playback Manager Initialized",
			"Playback manager has been successfully initialized",
		)
		m.eventBus.PublishAsync(initEvent)
	}

	m.initialized = true
	logger.Info("Playback manager initialized successfully")
	return nil
}

// Shutdown gracefully shuts down the playback manager
func (m *Manager) Shutdown() error {
	m.cancel()
	m.initialized = false
	return nil
}

// Store exposes profile persistence to the API layer
func (m *Manager) Store() *ProfileStore {
	return m.store
}

func (m *Manager) ensureDefaultProfile() error {
	_, _, err := m.store.GetByName(m.config.DefaultProfileName)
	if err == nil {
		return nil
	}
	profile := DefaultDeviceProfile()
	profile.Name = m.config.DefaultProfileName
	_, err = m.store.Save(m.config.DefaultProfileName, ProfileSourceAPI, profile)
	return err
}

// Decide negotiates playback for one request
func (m *Manager) Decide(req *DecideRequest) (*DecideResponse, error) {
	started := time.Now()

	profile, err := m.resolveProfile(req)
	if err != nil {
		return nil, err
	}

	// Sources probed without a container bitrate would otherwise fail the
	// direct-path bitrate gate even when their stream sum fits the budget
	for _, source := range req.MediaSources {
		if source != nil {
			source.InferTotalBitrate(false)
		}
	}

	options := core.NewStreamOptions()
	options.ItemID = req.ItemID
	options.DeviceID = req.DeviceID
	options.Profile = profile
	options.MediaSources = req.MediaSources
	options.MediaSourceID = req.MediaSourceID
	if req.Context != "" {
		options.Context = req.Context
	}
	options.MaxBitrate = req.MaxBitrate
	options.AudioStreamIndex = req.AudioStreamIndex
	options.SubtitleStreamIndex = req.SubtitleStreamIndex
	options.MaxAudioChannels = req.MaxAudioChannels
	options.ForceDirectPlay = req.ForceDirectPlay
	options.ForceDirectStream = req.ForceDirectStream
	if req.EnableDirectPlay != nil {
		options.EnableDirectPlay = *req.EnableDirectPlay
	}
	if req.EnableDirectStream != nil {
		options.EnableDirectStream = *req.EnableDirectStream
	}

	var decision *core.StreamDecision
	switch req.MediaType {
	case core.MediaKindVideo:
		decision, err = m.builder.BuildVideoItem(options)
	case core.MediaKindAudio:
		decision, err = m.builder.BuildAudioItem(options)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMediaType, req.MediaType)
	}
	if err != nil {
		return nil, err
	}

	response := &DecideResponse{
		Decision:      decision,
		RequestID:     uuid.New().String(),
		ProcessTimeMs: time.Since(started).Milliseconds(),
	}
	if decision != nil {
		response.ContentFeatures = m.contentFeatures(profile, decision)
	}

	m.publishDecision(req, decision)
	return response, nil
}

func (m *Manager) resolveProfile(req *DecideRequest) (*core.DeviceProfile, error) {
	switch {
	case req.Profile != nil:
		return req.Profile, nil
	case req.ProfileID != "":
		_, profile, err := m.store.Get(req.ProfileID)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, req.ProfileID)
		}
		return profile, nil
	case req.ProfileName != "":
		_, profile, err := m.store.GetByName(req.ProfileName)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, req.ProfileName)
		}
		return profile, nil
	case m.config.DefaultProfileName != "":
		_, profile, err := m.store.GetByName(m.config.DefaultProfileName)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, m.config.DefaultProfileName)
		}
		return profile, nil
	}
	return nil, ErrProfileNotFound
}

func (m *Manager) contentFeatures(profile *core.DeviceProfile, decision *core.StreamDecision) []string {
	features := core.NewContentFeatureBuilder(profile)
	switch decision.MediaType {
	case core.MediaKindVideo:
		return features.BuildVideoHeader(decision)
	case core.MediaKindAudio:
		return []string{features.BuildAudioHeader(decision)}
	}
	return nil
}

func (m *Manager) publishDecision(req *DecideRequest, decision *core.StreamDecision) {
	if m.eventBus == nil {
		return
	}
	data := map[string]interface{}{
		"item_id":   req.ItemID,
		"device_id": req.DeviceID,
	}
	title := "Playback Decision"
	message := "no viable playback path"
	if decision != nil {
		data["play_method"] = string(decision.PlayMethod)
		data["container"] = decision.Container
		if decision.MediaSource != nil {
			data["media_source_id"] = decision.MediaSource.ID
		}
		if bitrate := decision.TargetTotalBitrate(); bitrate != nil {
			data["total_bitrate"] = *bitrate
		}
		message = fmt.Sprintf("negotiated %s playback", decision.PlayMethod)
	}
	event := events.NewEventWithData(events.EventPlaybackDecision, "playbackmodule", title, message, data)
	m.eventBus.PublishAsync(event)
}

// Health reports manager status for the health endpoint
func (m *Manager) Health() map[string]interface{} {
	profileCount := int64(0)
	if m.db != nil {
		m.db.Model(&DeviceProfileRecord{}).Count(&profileCount)
	}
	return map[string]interface{}{
		"initialized": m.initialized,
		"profiles":    profileCount,
	}
}
