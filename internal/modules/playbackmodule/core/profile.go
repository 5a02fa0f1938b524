package core

import "strings"

// ProfileCondition is a single typed comparison between a declared device
// expectation and an observed media attribute. Value is kept as text and
// parsed against the property's native type at evaluation time. IsRequired
// governs how an unknown attribute is treated: a required condition fails
// when the attribute is absent, an optional one passes.
type ProfileCondition struct {
	Condition  ConditionType     `json:"condition" yaml:"condition"`
	Property   ConditionProperty `json:"property" yaml:"property"`
	Value      string            `json:"value" yaml:"value"`
	IsRequired bool              `json:"is_required" yaml:"is_required"`
}

// DirectPlayProfile declares a container/codec combination the device can
// play as-is. Empty lists are wildcards.
type DirectPlayProfile struct {
	Type       MediaKind `json:"type" yaml:"type"`
	Container  string    `json:"container" yaml:"container"`
	VideoCodec string    `json:"video_codec,omitempty" yaml:"video_codec,omitempty"`
	AudioCodec string    `json:"audio_codec,omitempty" yaml:"audio_codec,omitempty"`
}

// Containers returns the container allow-list
func (p DirectPlayProfile) Containers() []string { return splitValue(p.Container) }

// VideoCodecs returns the video codec allow-list
func (p DirectPlayProfile) VideoCodecs() []string { return splitValue(p.VideoCodec) }

// AudioCodecs returns the audio codec allow-list
func (p DirectPlayProfile) AudioCodecs() []string { return splitValue(p.AudioCodec) }

// ContainerProfile attaches conditions to a container. Conditions apply to
// any source in a matching container whose ApplyConditions guard passes.
type ContainerProfile struct {
	Type            MediaKind          `json:"type" yaml:"type"`
	Container       string             `json:"container" yaml:"container"`
	ApplyConditions []ProfileCondition `json:"apply_conditions,omitempty" yaml:"apply_conditions,omitempty"`
	Conditions      []ProfileCondition `json:"conditions,omitempty" yaml:"conditions,omitempty"`
}

// ContainsContainer reports whether this profile governs the given container
func (p ContainerProfile) ContainsContainer(container string) bool {
	return containsIgnoreCase(splitValue(p.Container), container)
}

// CodecProfile attaches conditions to a codec, optionally scoped to a
// container. A profile whose ApplyConditions guard fails contributes nothing.
type CodecProfile struct {
	Type            CodecKind          `json:"type" yaml:"type"`
	Codec           string             `json:"codec,omitempty" yaml:"codec,omitempty"`
	Container       string             `json:"container,omitempty" yaml:"container,omitempty"`
	ApplyConditions []ProfileCondition `json:"apply_conditions,omitempty" yaml:"apply_conditions,omitempty"`
	Conditions      []ProfileCondition `json:"conditions,omitempty" yaml:"conditions,omitempty"`
}

// ContainsAnyCodec reports whether this profile governs the codec within the container
func (p CodecProfile) ContainsAnyCodec(codec, container string) bool {
	return containsIgnoreCase(splitValue(p.Container), container) &&
		containsIgnoreCase(splitValue(p.Codec), codec)
}

// TranscodingProfile describes one output format the device accepts when the
// source has to be re-encoded. MaxAudioChannels is carried as text and parsed
// lazily so a malformed value degrades to "no limit" rather than an error.
type TranscodingProfile struct {
	Type                  MediaKind         `json:"type" yaml:"type"`
	Context               EncodingContext   `json:"context" yaml:"context"`
	Container             string            `json:"container" yaml:"container"`
	VideoCodec            string            `json:"video_codec,omitempty" yaml:"video_codec,omitempty"`
	AudioCodec            string            `json:"audio_codec,omitempty" yaml:"audio_codec,omitempty"`
	Protocol              SubProtocol       `json:"protocol,omitempty" yaml:"protocol,omitempty"`
	EstimateContentLength bool              `json:"estimate_content_length,omitempty" yaml:"estimate_content_length,omitempty"`
	CopyTimestamps        bool              `json:"copy_timestamps,omitempty" yaml:"copy_timestamps,omitempty"`
	BreakOnNonKeyFrames   bool              `json:"break_on_non_key_frames,omitempty" yaml:"break_on_non_key_frames,omitempty"`
	TranscodeSeekInfo     TranscodeSeekInfo `json:"transcode_seek_info,omitempty" yaml:"transcode_seek_info,omitempty"`
	MaxAudioChannels      string            `json:"max_audio_channels,omitempty" yaml:"max_audio_channels,omitempty"`
	MinSegments           int               `json:"min_segments,omitempty" yaml:"min_segments,omitempty"`
	SegmentLength         int               `json:"segment_length,omitempty" yaml:"segment_length,omitempty"`
}

// VideoCodecs returns the candidate video codec list in preference order
func (p TranscodingProfile) VideoCodecs() []string { return splitValue(p.VideoCodec) }

// AudioCodecs returns the candidate audio codec list in preference order
func (p TranscodingProfile) AudioCodecs() []string { return splitValue(p.AudioCodec) }

// SubtitleProfile declares one subtitle delivery method the device supports
// for a subtitle format. An empty Language matches any language.
type SubtitleProfile struct {
	Format   string                 `json:"format" yaml:"format"`
	Method   SubtitleDeliveryMethod `json:"method" yaml:"method"`
	Language string                 `json:"language,omitempty" yaml:"language,omitempty"`
}

// SupportsLanguage reports whether this profile applies to a stream language
func (p SubtitleProfile) SupportsLanguage(lang string) bool {
	if p.Language == "" {
		return true
	}
	if lang == "" {
		lang = "und"
	}
	return containsIgnoreCase(splitValue(p.Language), lang)
}

// ResponseProfile overrides the capability token advertised for an exact
// container/codec combination, checked before the built-in format table.
type ResponseProfile struct {
	Type       MediaKind          `json:"type" yaml:"type"`
	Container  string             `json:"container" yaml:"container"`
	VideoCodec string             `json:"video_codec,omitempty" yaml:"video_codec,omitempty"`
	AudioCodec string             `json:"audio_codec,omitempty" yaml:"audio_codec,omitempty"`
	OrgPn      string             `json:"org_pn,omitempty" yaml:"org_pn,omitempty"`
	MimeType   string             `json:"mime_type,omitempty" yaml:"mime_type,omitempty"`
	Conditions []ProfileCondition `json:"conditions,omitempty" yaml:"conditions,omitempty"`
}

// DeviceProfile is the full declared capability set of a receiving device.
// It is supplied by the caller, treated as an immutable snapshot, and never
// mutated by the engine.
type DeviceProfile struct {
	Name string `json:"name" yaml:"name"`
	ID   string `json:"id,omitempty" yaml:"id,omitempty"`

	MaxStreamingBitrate              *int `json:"max_streaming_bitrate,omitempty" yaml:"max_streaming_bitrate,omitempty"`
	MaxStaticBitrate                 *int `json:"max_static_bitrate,omitempty" yaml:"max_static_bitrate,omitempty"`
	MusicStreamingTranscodingBitrate *int `json:"music_streaming_transcoding_bitrate,omitempty" yaml:"music_streaming_transcoding_bitrate,omitempty"`

	DirectPlayProfiles  []DirectPlayProfile  `json:"direct_play_profiles,omitempty" yaml:"direct_play_profiles,omitempty"`
	TranscodingProfiles []TranscodingProfile `json:"transcoding_profiles,omitempty" yaml:"transcoding_profiles,omitempty"`
	ContainerProfiles   []ContainerProfile   `json:"container_profiles,omitempty" yaml:"container_profiles,omitempty"`
	CodecProfiles       []CodecProfile       `json:"codec_profiles,omitempty" yaml:"codec_profiles,omitempty"`
	SubtitleProfiles    []SubtitleProfile    `json:"subtitle_profiles,omitempty" yaml:"subtitle_profiles,omitempty"`
	ResponseProfiles    []ResponseProfile    `json:"response_profiles,omitempty" yaml:"response_profiles,omitempty"`
}

// MaxBitrateFor returns the bitrate ceiling for a context, nil meaning unlimited
func (p *DeviceProfile) MaxBitrateFor(context EncodingContext) *int {
	if context == ContextStatic && p.MaxStaticBitrate != nil {
		return p.MaxStaticBitrate
	}
	return p.MaxStreamingBitrate
}

// transcodingProfilesFor returns every transcoding profile matching kind and
// context, in declaration order.
func (p *DeviceProfile) transcodingProfilesFor(kind MediaKind, context EncodingContext) []*TranscodingProfile {
	var out []*TranscodingProfile
	for i := range p.TranscodingProfiles {
		tp := &p.TranscodingProfiles[i]
		if tp.Type != kind {
			continue
		}
		if tp.Context != "" && tp.Context != context {
			continue
		}
		out = append(out, tp)
	}
	return out
}

// matchesCodecList reports whether codec is acceptable for a response
// profile's comma-joined codec list.
func matchesCodecList(list, codec string) bool {
	values := splitValue(list)
	if len(values) == 0 {
		return true
	}
	if codec == "" {
		return false
	}
	for _, v := range values {
		if strings.EqualFold(v, codec) {
			return true
		}
	}
	return false
}
