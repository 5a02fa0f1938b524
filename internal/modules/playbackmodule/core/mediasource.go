package core

import "strings"

// MediaProtocol is the transport a media source is read over
type MediaProtocol string

const (
	ProtocolFile MediaProtocol = "File"
	ProtocolHttp MediaProtocol = "Http"
)

// MediaStream describes a single elementary stream inside a media source.
// Attributes the prober could not determine are nil and evaluate under the
// unknown-passes-unless-required rule.
type MediaStream struct {
	Index    int             `json:"index"`
	Type     MediaStreamKind `json:"type"`
	Codec    string          `json:"codec,omitempty"`
	CodecTag string          `json:"codec_tag,omitempty"`
	Language string          `json:"language,omitempty"`
	Profile  string          `json:"profile,omitempty"`

	BitRate      *int     `json:"bit_rate,omitempty"`
	Channels     *int     `json:"channels,omitempty"`
	SampleRate   *int     `json:"sample_rate,omitempty"`
	Width        *int     `json:"width,omitempty"`
	Height       *int     `json:"height,omitempty"`
	BitDepth     *int     `json:"bit_depth,omitempty"`
	Level        *float64 `json:"level,omitempty"`
	FrameRate    *float64 `json:"frame_rate,omitempty"`
	PacketLength *int     `json:"packet_length,omitempty"`
	RefFrames    *int     `json:"ref_frames,omitempty"`

	IsAnamorphic *bool `json:"is_anamorphic,omitempty"`
	IsAVC        *bool `json:"is_avc,omitempty"`
	IsInterlaced bool  `json:"is_interlaced,omitempty"`

	IsDefault bool `json:"is_default,omitempty"`
	IsForced  bool `json:"is_forced,omitempty"`

	// Subtitle-only attributes
	IsExternal             bool `json:"is_external,omitempty"`
	SupportsExternalStream bool `json:"supports_external_stream,omitempty"`
	Score                  *int `json:"score,omitempty"`
}

// textSubtitleCodecs are formats that carry subtitles as text rather than
// rendered images, and are therefore convertible between one another.
var textSubtitleCodecs = map[string]bool{
	"srt":      true,
	"subrip":   true,
	"ass":      true,
	"ssa":      true,
	"vtt":      true,
	"webvtt":   true,
	"mov_text": true,
	"ttml":     true,
	"smi":      true,
	"sami":     true,
}

// IsTextSubtitleStream reports whether this subtitle stream is text-based
func (s *MediaStream) IsTextSubtitleStream() bool {
	if s.Type != MediaStreamSubtitle {
		return false
	}
	return textSubtitleCodecs[strings.ToLower(s.Codec)]
}

// SupportsSubtitleConversionTo reports whether the stream can be converted to
// the given subtitle format. Image subtitles never convert; text formats
// convert among themselves.
func (s *MediaStream) SupportsSubtitleConversionTo(format string) bool {
	if !s.IsTextSubtitleStream() {
		return false
	}
	return textSubtitleCodecs[strings.ToLower(format)]
}

// MediaSourceInfo is one candidate representation of a media item: a
// container, its streams and delivery flags. The engine reads it, never
// writes it, with the one exception of InferTotalBitrate which callers may
// invoke before negotiation.
type MediaSourceInfo struct {
	ID        string        `json:"id"`
	Path      string        `json:"path,omitempty"`
	Protocol  MediaProtocol `json:"protocol,omitempty"`
	Container string        `json:"container"`

	Size         *int64                    `json:"size,omitempty"`
	Bitrate      *int                      `json:"bitrate,omitempty"`
	RunTimeTicks *int64                    `json:"run_time_ticks,omitempty"`
	Timestamp    *TransportStreamTimestamp `json:"timestamp,omitempty"`

	IsRemote             bool `json:"is_remote,omitempty"`
	SupportsDirectPlay   bool `json:"supports_direct_play"`
	SupportsDirectStream bool `json:"supports_direct_stream"`
	SupportsTranscoding  bool `json:"supports_transcoding"`

	DefaultAudioStreamIndex    *int `json:"default_audio_stream_index,omitempty"`
	DefaultSubtitleStreamIndex *int `json:"default_subtitle_stream_index,omitempty"`

	MediaStreams []MediaStream `json:"media_streams"`
}

// VideoStream returns the first video stream, or nil for audio-only sources
func (m *MediaSourceInfo) VideoStream() *MediaStream {
	for i := range m.MediaStreams {
		if m.MediaStreams[i].Type == MediaStreamVideo {
			return &m.MediaStreams[i]
		}
	}
	return nil
}

// GetMediaStream returns the stream of the given kind at the given index
func (m *MediaSourceInfo) GetMediaStream(kind MediaStreamKind, index int) *MediaStream {
	for i := range m.MediaStreams {
		if m.MediaStreams[i].Type == kind && m.MediaStreams[i].Index == index {
			return &m.MediaStreams[i]
		}
	}
	return nil
}

// GetDefaultAudioStream picks the audio stream to negotiate: the explicit
// index when given, else the stream flagged default, else the first audio
// stream in declaration order.
func (m *MediaSourceInfo) GetDefaultAudioStream(defaultIndex *int) *MediaStream {
	if defaultIndex != nil && *defaultIndex != -1 {
		if stream := m.GetMediaStream(MediaStreamAudio, *defaultIndex); stream != nil {
			return stream
		}
	}
	for i := range m.MediaStreams {
		if m.MediaStreams[i].Type == MediaStreamAudio && m.MediaStreams[i].IsDefault {
			return &m.MediaStreams[i]
		}
	}
	for i := range m.MediaStreams {
		if m.MediaStreams[i].Type == MediaStreamAudio {
			return &m.MediaStreams[i]
		}
	}
	return nil
}

// GetStreamCount counts streams of a kind, nil when the source declares no
// streams at all (count unknown rather than zero).
func (m *MediaSourceInfo) GetStreamCount(kind MediaStreamKind) *int {
	if len(m.MediaStreams) == 0 {
		return nil
	}
	count := 0
	for i := range m.MediaStreams {
		if m.MediaStreams[i].Type == kind {
			count++
		}
	}
	return &count
}

// IsSecondaryAudio reports whether the stream is not the primary internal
// audio track. External tracks are never secondary; with no internal audio
// the answer is unknown.
func (m *MediaSourceInfo) IsSecondaryAudio(stream *MediaStream) *bool {
	if stream.IsExternal {
		secondary := false
		return &secondary
	}
	for i := range m.MediaStreams {
		current := &m.MediaStreams[i]
		if current.Type == MediaStreamAudio && !current.IsExternal {
			secondary := current.Index != stream.Index
			return &secondary
		}
	}
	return nil
}

// InferTotalBitrate fills in the container bitrate from the sum of internal
// stream bitrates when the prober did not report one. With force it
// recomputes even when a value is already present.
func (m *MediaSourceInfo) InferTotalBitrate(force bool) {
	if !force && m.Bitrate != nil {
		return
	}
	total := 0
	for i := range m.MediaStreams {
		stream := &m.MediaStreams[i]
		if !stream.IsExternal && stream.BitRate != nil {
			total += *stream.BitRate
		}
	}
	if total > 0 {
		m.Bitrate = &total
	}
}
