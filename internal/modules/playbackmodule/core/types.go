// Package core implements the playback negotiation engine: given a device
// capability profile and a set of candidate media sources it decides whether an
// item is direct played, direct streamed (remuxed) or transcoded, and computes
// every parameter that governs the chosen delivery path.
//
// Everything in this package is pure computation over caller-supplied,
// read-only inputs. No I/O, no shared state; every operation is safe to call
// concurrently.
package core

import "strings"

// MediaKind identifies the overall media type being negotiated
type MediaKind string

const (
	MediaKindAudio MediaKind = "Audio"
	MediaKindVideo MediaKind = "Video"
	MediaKindPhoto MediaKind = "Photo"
)

// PlayMethod is the delivery path chosen for a media source
type PlayMethod string

const (
	// PlayMethodDirectPlay delivers the source file unmodified
	PlayMethodDirectPlay PlayMethod = "DirectPlay"
	// PlayMethodDirectStream remuxes the container without re-encoding
	PlayMethodDirectStream PlayMethod = "DirectStream"
	// PlayMethodTranscode re-encodes audio and/or video
	PlayMethodTranscode PlayMethod = "Transcode"
)

// MediaStreamKind identifies an individual stream within a media source
type MediaStreamKind string

const (
	MediaStreamVideo    MediaStreamKind = "Video"
	MediaStreamAudio    MediaStreamKind = "Audio"
	MediaStreamSubtitle MediaStreamKind = "Subtitle"
)

// CodecKind scopes a codec profile to the streams it governs
type CodecKind string

const (
	CodecKindVideo CodecKind = "Video"
	CodecKindAudio CodecKind = "Audio"
	// CodecKindVideoAudio governs the audio track inside a video source
	CodecKindVideoAudio CodecKind = "VideoAudio"
)

// EncodingContext distinguishes live streaming from static downloads
type EncodingContext string

const (
	ContextStreaming EncodingContext = "Streaming"
	ContextStatic    EncodingContext = "Static"
)

// SubProtocol is the transport sub-protocol of a transcoding profile
type SubProtocol string

const (
	// SubProtocolHTTP is plain progressive delivery
	SubProtocolHTTP SubProtocol = "http"
	// SubProtocolHLS is segmented delivery
	SubProtocolHLS SubProtocol = "hls"
)

// TranscodeSeekInfo describes how seeking is performed on a transcoded stream
type TranscodeSeekInfo string

const (
	TranscodeSeekAuto  TranscodeSeekInfo = "Auto"
	TranscodeSeekBytes TranscodeSeekInfo = "Bytes"
)

// TransportStreamTimestamp describes the timestamp layout of an MPEG transport stream
type TransportStreamTimestamp string

const (
	TimestampNone  TransportStreamTimestamp = "None"
	TimestampZero  TransportStreamTimestamp = "Zero"
	TimestampValid TransportStreamTimestamp = "Valid"
)

// ParseTransportStreamTimestamp maps a condition value to a timestamp kind.
// Unknown spellings report false so a malformed profile reads as a non-match.
func ParseTransportStreamTimestamp(s string) (TransportStreamTimestamp, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none":
		return TimestampNone, true
	case "zero":
		return TimestampZero, true
	case "valid":
		return TimestampValid, true
	}
	return TimestampNone, false
}

// SubtitleDeliveryMethod is how a subtitle stream reaches the client
type SubtitleDeliveryMethod string

const (
	// SubtitleMethodEncode burns the subtitle into the video server-side
	SubtitleMethodEncode SubtitleDeliveryMethod = "Encode"
	// SubtitleMethodEmbed keeps the subtitle muxed into the output container
	SubtitleMethodEmbed SubtitleDeliveryMethod = "Embed"
	// SubtitleMethodExternal serves the subtitle as a sidecar file
	SubtitleMethodExternal SubtitleDeliveryMethod = "External"
	// SubtitleMethodHls delivers the subtitle as an HLS side channel
	SubtitleMethodHls SubtitleDeliveryMethod = "Hls"
)

// ConditionType is the comparison applied by a profile condition
type ConditionType string

const (
	ConditionEquals           ConditionType = "Equals"
	ConditionNotEquals        ConditionType = "NotEquals"
	ConditionLessThanEqual    ConditionType = "LessThanEqual"
	ConditionGreaterThanEqual ConditionType = "GreaterThanEqual"
	ConditionEqualsAny        ConditionType = "EqualsAny"
)

// ConditionProperty is the media attribute a profile condition inspects
type ConditionProperty string

const (
	PropertyAudioChannels    ConditionProperty = "AudioChannels"
	PropertyAudioBitrate     ConditionProperty = "AudioBitrate"
	PropertyAudioProfile     ConditionProperty = "AudioProfile"
	PropertyWidth            ConditionProperty = "Width"
	PropertyHeight           ConditionProperty = "Height"
	PropertyPacketLength     ConditionProperty = "PacketLength"
	PropertyVideoBitDepth    ConditionProperty = "VideoBitDepth"
	PropertyVideoBitrate     ConditionProperty = "VideoBitrate"
	PropertyVideoFramerate   ConditionProperty = "VideoFramerate"
	PropertyVideoLevel       ConditionProperty = "VideoLevel"
	PropertyVideoProfile     ConditionProperty = "VideoProfile"
	PropertyVideoTimestamp   ConditionProperty = "VideoTimestamp"
	PropertyIsAnamorphic     ConditionProperty = "IsAnamorphic"
	PropertyIsAvc            ConditionProperty = "IsAvc"
	PropertyIsInterlaced     ConditionProperty = "IsInterlaced"
	PropertyRefFrames        ConditionProperty = "RefFrames"
	PropertyNumAudioStreams  ConditionProperty = "NumAudioStreams"
	PropertyNumVideoStreams  ConditionProperty = "NumVideoStreams"
	PropertyIsSecondaryAudio ConditionProperty = "IsSecondaryAudio"
	PropertyVideoCodecTag    ConditionProperty = "VideoCodecTag"
)

// splitValue breaks a comma-joined profile list into its entries. An empty
// string yields an empty slice, which every matcher treats as "any".
func splitValue(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// containsIgnoreCase reports whether list contains value case-insensitively.
// An empty list is a wildcard.
func containsIgnoreCase(list []string, value string) bool {
	if len(list) == 0 {
		return true
	}
	for _, item := range list {
		if strings.EqualFold(item, value) {
			return true
		}
	}
	return false
}
