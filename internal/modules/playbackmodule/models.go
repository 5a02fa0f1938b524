package playbackmodule

import "time"

// DeviceProfileRecord is the stored form of a device profile. The profile
// body is kept as yaml so stored rows and the profile directory share one
// format.
type DeviceProfileRecord struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	Body      string    `gorm:"type:text;not null" json:"-"`
	Source    string    `gorm:"default:api" json:"source"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName uses an explicit name so the schema survives model renames
func (DeviceProfileRecord) TableName() string {
	return "playback_device_profiles"
}

// Profile sources
const (
	ProfileSourceAPI  = "api"
	ProfileSourceFile = "file"
)
