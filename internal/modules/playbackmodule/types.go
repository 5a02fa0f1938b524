package playbackmodule

import (
	"time"

	"github.com/mantonx/playcast/internal/modules/playbackmodule/core"
)

// DecideRequest asks the engine to negotiate playback of one item for one
// device. The device profile comes inline, by stored id, or by stored name;
// exactly one of the three should be set, checked in that order.
type DecideRequest struct {
	ItemID    string         `json:"item_id" binding:"required"`
	DeviceID  string         `json:"device_id" binding:"required"`
	MediaType core.MediaKind `json:"media_type" binding:"required"`

	Profile     *core.DeviceProfile `json:"profile,omitempty"`
	ProfileID   string              `json:"profile_id,omitempty"`
	ProfileName string              `json:"profile_name,omitempty"`

	MediaSources []*core.MediaSourceInfo `json:"media_sources" binding:"required"`

	MediaSourceID string               `json:"media_source_id,omitempty"`
	Context       core.EncodingContext `json:"context,omitempty"`
	MaxBitrate    *int                 `json:"max_bitrate,omitempty"`

	AudioStreamIndex    *int `json:"audio_stream_index,omitempty"`
	SubtitleStreamIndex *int `json:"subtitle_stream_index,omitempty"`
	MaxAudioChannels    *int `json:"max_audio_channels,omitempty"`

	ForceDirectPlay   bool `json:"force_direct_play,omitempty"`
	ForceDirectStream bool `json:"force_direct_stream,omitempty"`

	// Nil means enabled; callers opt out explicitly
	EnableDirectPlay   *bool `json:"enable_direct_play,omitempty"`
	EnableDirectStream *bool `json:"enable_direct_stream,omitempty"`
}

// DecideResponse carries the negotiated decision. Decision is null when no
// candidate source yields a viable path; ContentFeatures holds the rendered
// capability header values for the chosen stream.
type DecideResponse struct {
	Decision        *core.StreamDecision `json:"decision"`
	ContentFeatures []string             `json:"content_features,omitempty"`
	RequestID       string               `json:"request_id"`
	ProcessTimeMs   int64                `json:"process_time_ms"`
}

// ProfileRequest creates or replaces a stored device profile
type ProfileRequest struct {
	Name    string              `json:"name" binding:"required"`
	Profile *core.DeviceProfile `json:"profile" binding:"required"`
}

// ProfileResponse describes a stored device profile
type ProfileResponse struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	Profile   *core.DeviceProfile `json:"profile,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}
