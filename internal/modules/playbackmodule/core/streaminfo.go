package core

// StreamDecision is the outcome of playback negotiation for one media
// source: the chosen play method plus every parameter that governs the
// delivery path. Direct paths carry the source's own container and no codec
// transform fields; transcode decisions carry the full target description.
type StreamDecision struct {
	ItemID    string    `json:"item_id"`
	DeviceID  string    `json:"device_id"`
	MediaType MediaKind `json:"media_type"`

	MediaSource *MediaSourceInfo `json:"media_source"`
	PlayMethod  PlayMethod       `json:"play_method"`
	Container   string           `json:"container"`

	// Transcode-only fields
	Protocol              SubProtocol       `json:"protocol,omitempty"`
	VideoCodecs           []string          `json:"video_codecs,omitempty"`
	AudioCodecs           []string          `json:"audio_codecs,omitempty"`
	CopyTimestamps        bool              `json:"copy_timestamps,omitempty"`
	BreakOnNonKeyFrames   bool              `json:"break_on_non_key_frames,omitempty"`
	EstimateContentLength bool              `json:"estimate_content_length,omitempty"`
	MinSegments           int               `json:"min_segments,omitempty"`
	SegmentLength         int               `json:"segment_length,omitempty"`
	TranscodeSeekInfo     TranscodeSeekInfo `json:"transcode_seek_info,omitempty"`

	// Stream selection
	AudioStreamIndex    *int `json:"audio_stream_index,omitempty"`
	SubtitleStreamIndex *int `json:"subtitle_stream_index,omitempty"`

	// Numeric ceilings, nil meaning unconstrained
	MaxWidth         *int     `json:"max_width,omitempty"`
	MaxHeight        *int     `json:"max_height,omitempty"`
	MaxFramerate     *float64 `json:"max_framerate,omitempty"`
	VideoBitrate     *int     `json:"video_bitrate,omitempty"`
	AudioBitrate     *int     `json:"audio_bitrate,omitempty"`
	MaxAudioChannels *int     `json:"max_audio_channels,omitempty"`
	MaxVideoBitDepth *int     `json:"max_video_bit_depth,omitempty"`
	MaxRefFrames     *int     `json:"max_ref_frames,omitempty"`
	MaxVideoLevel    *float64 `json:"max_video_level,omitempty"`
	VideoProfile     string   `json:"video_profile,omitempty"`

	// Boolean requirements produced by codec conditions
	RequireAvc           bool `json:"require_avc,omitempty"`
	RequireNonAnamorphic bool `json:"require_non_anamorphic,omitempty"`
	DeInterlace          bool `json:"de_interlace,omitempty"`

	// Subtitle delivery
	SubtitleDeliveryMethod SubtitleDeliveryMethod `json:"subtitle_delivery_method,omitempty"`
	SubtitleFormat         string                 `json:"subtitle_format,omitempty"`
}

// IsDirect reports whether the decision avoids re-encoding
func (d *StreamDecision) IsDirect() bool {
	return d.PlayMethod == PlayMethodDirectPlay || d.PlayMethod == PlayMethodDirectStream
}

// TargetVideoStream returns the video stream the decision applies to
func (d *StreamDecision) TargetVideoStream() *MediaStream {
	if d.MediaSource == nil {
		return nil
	}
	return d.MediaSource.VideoStream()
}

// TargetAudioStream returns the audio stream the decision applies to
func (d *StreamDecision) TargetAudioStream() *MediaStream {
	if d.MediaSource == nil {
		return nil
	}
	return d.MediaSource.GetDefaultAudioStream(d.AudioStreamIndex)
}

// TargetVideoCodec is the video codec that reaches the device: the source
// codec on a direct path, the first transcoding candidate otherwise.
func (d *StreamDecision) TargetVideoCodec() string {
	if d.IsDirect() {
		if stream := d.TargetVideoStream(); stream != nil {
			return stream.Codec
		}
		return ""
	}
	if len(d.VideoCodecs) > 0 {
		return d.VideoCodecs[0]
	}
	return ""
}

// TargetAudioCodec is the audio codec that reaches the device
func (d *StreamDecision) TargetAudioCodec() string {
	if d.IsDirect() {
		if stream := d.TargetAudioStream(); stream != nil {
			return stream.Codec
		}
		return ""
	}
	if len(d.AudioCodecs) > 0 {
		return d.AudioCodecs[0]
	}
	return ""
}

// TargetWidth is the width the device will receive, after any clamping
func (d *StreamDecision) TargetWidth() *int {
	stream := d.TargetVideoStream()
	if d.IsDirect() || d.MaxWidth == nil {
		if stream != nil {
			return stream.Width
		}
		return nil
	}
	if stream != nil && stream.Width != nil && *stream.Width < *d.MaxWidth {
		return stream.Width
	}
	return d.MaxWidth
}

// TargetHeight is the height the device will receive, after any clamping
func (d *StreamDecision) TargetHeight() *int {
	stream := d.TargetVideoStream()
	if d.IsDirect() || d.MaxHeight == nil {
		if stream != nil {
			return stream.Height
		}
		return nil
	}
	if stream != nil && stream.Height != nil && *stream.Height < *d.MaxHeight {
		return stream.Height
	}
	return d.MaxHeight
}

// TargetAudioChannels is the channel count the device will receive
func (d *StreamDecision) TargetAudioChannels() *int {
	stream := d.TargetAudioStream()
	var current *int
	if stream != nil {
		current = stream.Channels
	}
	if d.IsDirect() || d.MaxAudioChannels == nil {
		return current
	}
	if current != nil && *current < *d.MaxAudioChannels {
		return current
	}
	return d.MaxAudioChannels
}

// TargetTimestamp is the transport stream timestamp layout of the output.
// Transcoded mpegts output always carries valid timestamps.
func (d *StreamDecision) TargetTimestamp() TransportStreamTimestamp {
	if d.IsDirect() {
		if d.MediaSource != nil && d.MediaSource.Timestamp != nil {
			return *d.MediaSource.Timestamp
		}
		return TimestampNone
	}
	if isMpegTsContainer(d.Container) {
		return TimestampValid
	}
	return TimestampNone
}

// TargetTotalBitrate is the overall bitrate of the output when known
func (d *StreamDecision) TargetTotalBitrate() *int {
	if d.IsDirect() {
		if d.MediaSource != nil {
			return d.MediaSource.Bitrate
		}
		return nil
	}
	if d.VideoBitrate == nil && d.AudioBitrate == nil {
		return nil
	}
	total := 0
	if d.VideoBitrate != nil {
		total += *d.VideoBitrate
	}
	if d.AudioBitrate != nil {
		total += *d.AudioBitrate
	}
	return &total
}

func isMpegTsContainer(container string) bool {
	switch container {
	case "ts", "mpegts", "m2ts", "mts":
		return true
	}
	return false
}
