package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidComparison reports a profile condition whose comparison kind is
// not valid for the property's value type. This is a malformed profile, not a
// failed match, and callers surface it as a configuration error.
var ErrInvalidComparison = errors.New("comparison not valid for property type")

func invalidComparison(c ProfileCondition) error {
	return fmt.Errorf("property %s, comparison %s: %w", c.Property, c.Condition, ErrInvalidComparison)
}

// satisfiesInt evaluates a condition against an optional integer attribute.
// A nil current value passes unless the condition is required; an unparsable
// expected value reads as a non-match.
func satisfiesInt(c ProfileCondition, current *int) (bool, error) {
	if current == nil {
		return !c.IsRequired, nil
	}
	expected, err := strconv.Atoi(strings.TrimSpace(c.Value))
	if err != nil {
		return false, nil
	}
	switch c.Condition {
	case ConditionEquals:
		return *current == expected, nil
	case ConditionNotEquals:
		return *current != expected, nil
	case ConditionGreaterThanEqual:
		return *current >= expected, nil
	case ConditionLessThanEqual:
		return *current <= expected, nil
	default:
		return false, invalidComparison(c)
	}
}

// satisfiesFloat evaluates a condition against an optional float attribute
func satisfiesFloat(c ProfileCondition, current *float64) (bool, error) {
	if current == nil {
		return !c.IsRequired, nil
	}
	expected, err := strconv.ParseFloat(strings.TrimSpace(c.Value), 64)
	if err != nil {
		return false, nil
	}
	switch c.Condition {
	case ConditionEquals:
		return *current == expected, nil
	case ConditionNotEquals:
		return *current != expected, nil
	case ConditionGreaterThanEqual:
		return *current >= expected, nil
	case ConditionLessThanEqual:
		return *current <= expected, nil
	default:
		return false, invalidComparison(c)
	}
}

// satisfiesBool evaluates a condition against an optional boolean attribute.
// Only equality comparisons are meaningful for booleans.
func satisfiesBool(c ProfileCondition, current *bool) (bool, error) {
	if current == nil {
		return !c.IsRequired, nil
	}
	expected, err := strconv.ParseBool(strings.TrimSpace(c.Value))
	if err != nil {
		return false, nil
	}
	switch c.Condition {
	case ConditionEquals:
		return *current == expected, nil
	case ConditionNotEquals:
		return *current != expected, nil
	default:
		return false, invalidComparison(c)
	}
}

// satisfiesString evaluates a condition against a text attribute. An empty
// current value is treated as unknown. EqualsAny splits the expected value on
// '|' and checks case-insensitive membership.
func satisfiesString(c ProfileCondition, current string) (bool, error) {
	if current == "" {
		return !c.IsRequired, nil
	}
	switch c.Condition {
	case ConditionEquals:
		return strings.EqualFold(current, c.Value), nil
	case ConditionNotEquals:
		return !strings.EqualFold(current, c.Value), nil
	case ConditionEqualsAny:
		for _, candidate := range strings.Split(c.Value, "|") {
			if strings.EqualFold(strings.TrimSpace(candidate), current) {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, invalidComparison(c)
	}
}

// satisfiesTimestamp evaluates a condition against the transport stream
// timestamp kind. Only equality comparisons apply.
func satisfiesTimestamp(c ProfileCondition, current *TransportStreamTimestamp) (bool, error) {
	if current == nil {
		return !c.IsRequired, nil
	}
	expected, ok := ParseTransportStreamTimestamp(c.Value)
	if !ok {
		return false, nil
	}
	switch c.Condition {
	case ConditionEquals:
		return *current == expected, nil
	case ConditionNotEquals:
		return *current != expected, nil
	default:
		return false, invalidComparison(c)
	}
}

// ConditionInput evaluates a single profile condition against the attributes
// of a concrete stream. Implementations exist per codec scope so the
// property/type pairing stays exhaustive.
type ConditionInput interface {
	Satisfies(c ProfileCondition) (bool, error)
}

// VideoConditionInput carries the observed attributes of a video stream
type VideoConditionInput struct {
	Width           *int
	Height          *int
	BitDepth        *int
	VideoBitrate    *int
	VideoProfile    string
	VideoLevel      *float64
	VideoFramerate  *float64
	PacketLength    *int
	RefFrames       *int
	NumAudioStreams *int
	NumVideoStreams *int
	Timestamp       *TransportStreamTimestamp
	IsAnamorphic    *bool
	IsAvc           *bool
	IsInterlaced    *bool
	VideoCodecTag   string
}

// NewVideoConditionInput collects condition attributes from a source and its
// video stream. Either may be nil.
func NewVideoConditionInput(source *MediaSourceInfo, video *MediaStream) VideoConditionInput {
	in := VideoConditionInput{}
	if source != nil {
		in.Timestamp = source.Timestamp
		in.NumAudioStreams = source.GetStreamCount(MediaStreamAudio)
		in.NumVideoStreams = source.GetStreamCount(MediaStreamVideo)
	}
	if video != nil {
		in.Width = video.Width
		in.Height = video.Height
		in.BitDepth = video.BitDepth
		in.VideoBitrate = video.BitRate
		in.VideoProfile = video.Profile
		in.VideoLevel = video.Level
		in.VideoFramerate = video.FrameRate
		in.PacketLength = video.PacketLength
		in.RefFrames = video.RefFrames
		in.IsAnamorphic = video.IsAnamorphic
		in.IsAvc = video.IsAVC
		interlaced := video.IsInterlaced
		in.IsInterlaced = &interlaced
		in.VideoCodecTag = video.CodecTag
	}
	return in
}

// Satisfies dispatches on the condition property's value type
func (in VideoConditionInput) Satisfies(c ProfileCondition) (bool, error) {
	switch c.Property {
	case PropertyWidth:
		return satisfiesInt(c, in.Width)
	case PropertyHeight:
		return satisfiesInt(c, in.Height)
	case PropertyVideoBitDepth:
		return satisfiesInt(c, in.BitDepth)
	case PropertyVideoBitrate:
		return satisfiesInt(c, in.VideoBitrate)
	case PropertyVideoProfile:
		return satisfiesString(c, in.VideoProfile)
	case PropertyVideoLevel:
		return satisfiesFloat(c, in.VideoLevel)
	case PropertyVideoFramerate:
		return satisfiesFloat(c, in.VideoFramerate)
	case PropertyPacketLength:
		return satisfiesInt(c, in.PacketLength)
	case PropertyRefFrames:
		return satisfiesInt(c, in.RefFrames)
	case PropertyNumAudioStreams:
		return satisfiesInt(c, in.NumAudioStreams)
	case PropertyNumVideoStreams:
		return satisfiesInt(c, in.NumVideoStreams)
	case PropertyVideoTimestamp:
		return satisfiesTimestamp(c, in.Timestamp)
	case PropertyIsAnamorphic:
		return satisfiesBool(c, in.IsAnamorphic)
	case PropertyIsAvc:
		return satisfiesBool(c, in.IsAvc)
	case PropertyIsInterlaced:
		return satisfiesBool(c, in.IsInterlaced)
	case PropertyVideoCodecTag:
		return satisfiesString(c, in.VideoCodecTag)
	default:
		return false, fmt.Errorf("property %s not valid for video streams: %w", c.Property, ErrInvalidComparison)
	}
}

// AudioConditionInput carries the observed attributes of a standalone audio stream
type AudioConditionInput struct {
	AudioChannels *int
	AudioBitrate  *int
}

// NewAudioConditionInput collects condition attributes from an audio stream
func NewAudioConditionInput(audio *MediaStream) AudioConditionInput {
	in := AudioConditionInput{}
	if audio != nil {
		in.AudioChannels = audio.Channels
		in.AudioBitrate = audio.BitRate
	}
	return in
}

// Satisfies dispatches on the condition property's value type
func (in AudioConditionInput) Satisfies(c ProfileCondition) (bool, error) {
	switch c.Property {
	case PropertyAudioChannels:
		return satisfiesInt(c, in.AudioChannels)
	case PropertyAudioBitrate:
		return satisfiesInt(c, in.AudioBitrate)
	default:
		return false, fmt.Errorf("property %s not valid for audio streams: %w", c.Property, ErrInvalidComparison)
	}
}

// VideoAudioConditionInput carries the observed attributes of the audio track
// inside a video source
type VideoAudioConditionInput struct {
	AudioChannels    *int
	AudioBitrate     *int
	AudioProfile     string
	IsSecondaryAudio *bool
}

// NewVideoAudioConditionInput collects condition attributes for the audio
// track of a video source
func NewVideoAudioConditionInput(source *MediaSourceInfo, audio *MediaStream) VideoAudioConditionInput {
	in := VideoAudioConditionInput{}
	if audio != nil {
		in.AudioChannels = audio.Channels
		in.AudioBitrate = audio.BitRate
		in.AudioProfile = audio.Profile
		if source != nil {
			in.IsSecondaryAudio = source.IsSecondaryAudio(audio)
		}
	}
	return in
}

// Satisfies dispatches on the condition property's value type
func (in VideoAudioConditionInput) Satisfies(c ProfileCondition) (bool, error) {
	switch c.Property {
	case PropertyAudioChannels:
		return satisfiesInt(c, in.AudioChannels)
	case PropertyAudioBitrate:
		return satisfiesInt(c, in.AudioBitrate)
	case PropertyAudioProfile:
		return satisfiesString(c, in.AudioProfile)
	case PropertyIsSecondaryAudio:
		return satisfiesBool(c, in.IsSecondaryAudio)
	default:
		return false, fmt.Errorf("property %s not valid for video audio tracks: %w", c.Property, ErrInvalidComparison)
	}
}
