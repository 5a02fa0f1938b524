package playbackmodule

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/playcast/internal/events"
	"github.com/mantonx/playcast/internal/modules/playbackmodule/core"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileStore persists device profiles and keeps file-sourced profiles in
// sync with a profiles directory.
type ProfileStore struct {
	db       *gorm.DB
	eventBus events.EventBus
	logger   hclog.Logger
}

// NewProfileStore creates a profile store. The event bus may be nil; profile
// lifecycle events are then dropped.
func NewProfileStore(db *gorm.DB, eventBus events.EventBus, logger hclog.Logger) *ProfileStore {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &ProfileStore{
		db:       db,
		eventBus: eventBus,
		logger:   logger.Named("profile-store"),
	}
}

// Save creates or replaces a profile under the given name
func (s *ProfileStore) Save(name, source string, profile *core.DeviceProfile) (*DeviceProfileRecord, error) {
	body, err := yaml.Marshal(profile)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize profile %q: %w", name, err)
	}

	record := &DeviceProfileRecord{
		ID:     uuid.New().String(),
		Name:   name,
		Body:   string(body),
		Source: source,
	}

	err = s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"body", "source", "updated_at"}),
	}).Create(record).Error
	if err != nil {
		return nil, fmt.Errorf("failed to store profile %q: %w", name, err)
	}

	// The upsert keeps the original row id on conflict
	var stored DeviceProfileRecord
	if err := s.db.Where("name = ?", name).First(&stored).Error; err != nil {
		return nil, fmt.Errorf("failed to read back profile %q: %w", name, err)
	}

	s.logger.Info("stored device profile", "name", name, "source", source)
	s.publish(events.EventProfileStored, "Device Profile Stored",
		fmt.Sprintf("profile %q stored", name), map[string]interface{}{
			"profile_id": stored.ID,
			"name":       stored.Name,
			"source":     stored.Source,
		})
	return &stored, nil
}

func (s *ProfileStore) publish(eventType events.EventType, title, message string, data map[string]interface{}) {
	if s.eventBus == nil {
		return
	}
	s.eventBus.PublishAsync(events.NewEventWithData(eventType, "playbackmodule", title, message, data))
}

// Get retrieves a profile by row id
func (s *ProfileStore) Get(id string) (*DeviceProfileRecord, *core.DeviceProfile, error) {
	var record DeviceProfileRecord
	if err := s.db.Where("id = ?", id).First(&record).Error; err != nil {
		return nil, nil, fmt.Errorf("profile not found: %w", err)
	}
	profile, err := s.decode(&record)
	return &record, profile, err
}

// GetByName retrieves a profile by its unique name
func (s *ProfileStore) GetByName(name string) (*DeviceProfileRecord, *core.DeviceProfile, error) {
	var record DeviceProfileRecord
	if err := s.db.Where("name = ?", name).First(&record).Error; err != nil {
		return nil, nil, fmt.Errorf("profile not found: %w", err)
	}
	profile, err := s.decode(&record)
	return &record, profile, err
}

// List returns all stored profile records
func (s *ProfileStore) List() ([]DeviceProfileRecord, error) {
	var records []DeviceProfileRecord
	if err := s.db.Order("name").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return records, nil
}

// Delete removes a stored profile by row id
func (s *ProfileStore) Delete(id string) error {
	result := s.db.Where("id = ?", id).Delete(&DeviceProfileRecord{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete profile: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	s.publish(events.EventProfileDeleted, "Device Profile Deleted",
		fmt.Sprintf("profile %s deleted", id), map[string]interface{}{
			"profile_id": id,
		})
	return nil
}

func (s *ProfileStore) decode(record *DeviceProfileRecord) (*core.DeviceProfile, error) {
	var profile core.DeviceProfile
	if err := yaml.Unmarshal([]byte(record.Body), &profile); err != nil {
		return nil, fmt.Errorf("stored profile %q is malformed: %w", record.Name, err)
	}
	return &profile, nil
}

// LoadDirectory imports every yaml profile in dir, named after its file. A
// missing directory is not an error; a malformed file is logged and skipped
// so one bad profile cannot block the rest.
func (s *ProfileStore) LoadDirectory(dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read profiles directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !isProfileFile(entry.Name()) {
			continue
		}
		if err := s.loadFile(filepath.Join(dir, entry.Name())); err != nil {
			s.logger.Error("skipping profile file", "file", entry.Name(), "error", err)
		}
	}
	return nil
}

func (s *ProfileStore) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var profile core.DeviceProfile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return fmt.Errorf("malformed profile yaml: %w", err)
	}

	name := profile.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	_, err = s.Save(name, ProfileSourceFile, &profile)
	return err
}

// Watch reloads profile files as they change until the context is canceled.
// Removed files keep their stored profile; devices already negotiated
// against it.
func (s *ProfileStore) Watch(ctx context.Context, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create profile watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch profiles directory: %w", err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
					continue
				}
				if !isProfileFile(event.Name) {
					continue
				}
				if err := s.loadFile(event.Name); err != nil {
					s.logger.Error("failed to reload profile file", "file", event.Name, "error", err)
					continue
				}
				s.logger.Info("reloaded profile file", "file", event.Name)
				s.publish(events.EventProfileReloaded, "Device Profile Reloaded",
					fmt.Sprintf("profile file %s reloaded", filepath.Base(event.Name)), map[string]interface{}{
						"file": event.Name,
					})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Error("profile watcher error", "error", err)
			}
		}
	}()

	s.logger.Info("watching profiles directory", "dir", dir)
	return nil
}

func isProfileFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
