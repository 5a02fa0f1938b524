package core

import (
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMatcher() *CapabilityMatcher {
	return NewCapabilityMatcher(hclog.NewNullLogger())
}

func h264MkvSource() *MediaSourceInfo {
	return &MediaSourceInfo{
		ID:        "source-1",
		Container: "mkv",
		Bitrate:   intp(5000000),
		MediaStreams: []MediaStream{
			{Index: 0, Type: MediaStreamVideo, Codec: "h264", Width: intp(1920), Height: intp(1080), BitRate: intp(4800000)},
			{Index: 1, Type: MediaStreamAudio, Codec: "aac", Channels: intp(2), BitRate: intp(192000)},
		},
		SupportsDirectPlay:   true,
		SupportsDirectStream: true,
		SupportsTranscoding:  true,
	}
}

func TestIsDirectPlayEligible(t *testing.T) {
	m := testMatcher()
	source := h264MkvSource()
	video := source.VideoStream()
	audio := source.GetDefaultAudioStream(nil)

	tests := []struct {
		name    string
		profile DirectPlayProfile
		want    bool
	}{
		{"exact match", DirectPlayProfile{Type: MediaKindVideo, Container: "mkv", VideoCodec: "h264", AudioCodec: "aac"}, true},
		{"container list match", DirectPlayProfile{Type: MediaKindVideo, Container: "mp4,mkv,avi"}, true},
		{"wildcard codecs", DirectPlayProfile{Type: MediaKindVideo, Container: "mkv"}, true},
		{"case insensitive", DirectPlayProfile{Type: MediaKindVideo, Container: "MKV", VideoCodec: "H264", AudioCodec: "AAC"}, true},
		{"container mismatch", DirectPlayProfile{Type: MediaKindVideo, Container: "mp4", VideoCodec: "h264"}, false},
		{"video codec mismatch", DirectPlayProfile{Type: MediaKindVideo, Container: "mkv", VideoCodec: "hevc"}, false},
		{"audio codec mismatch", DirectPlayProfile{Type: MediaKindVideo, Container: "mkv", AudioCodec: "ac3,dts"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.IsDirectPlayEligible(tt.profile, source, video, audio))
		})
	}
}

func TestIsDirectPlayEligibleMissingStreamWithCodecList(t *testing.T) {
	m := testMatcher()
	source := &MediaSourceInfo{
		Container: "mkv",
		MediaStreams: []MediaStream{
			{Index: 0, Type: MediaStreamVideo, Codec: "h264"},
		},
	}
	profile := DirectPlayProfile{Type: MediaKindVideo, Container: "mkv", AudioCodec: "aac"}

	// A non-empty audio codec list disqualifies a source with no audio stream
	assert.False(t, m.IsDirectPlayEligible(profile, source, source.VideoStream(), nil))
}

func TestApplicableCodecConditionsGuards(t *testing.T) {
	m := testMatcher()
	source := h264MkvSource()
	input := NewVideoConditionInput(source, source.VideoStream())

	profiles := []CodecProfile{
		{
			// Guard passes: its conditions are collected
			Type:            CodecKindVideo,
			Codec:           "h264",
			ApplyConditions: []ProfileCondition{{Condition: ConditionGreaterThanEqual, Property: PropertyWidth, Value: "1280"}},
			Conditions:      []ProfileCondition{{Condition: ConditionLessThanEqual, Property: PropertyVideoBitrate, Value: "8000000"}},
		},
		{
			// Guard fails: contributes nothing, but is not a disqualification
			Type:            CodecKindVideo,
			Codec:           "h264",
			ApplyConditions: []ProfileCondition{{Condition: ConditionLessThanEqual, Property: PropertyWidth, Value: "720"}},
			Conditions:      []ProfileCondition{{Condition: ConditionLessThanEqual, Property: PropertyVideoBitrate, Value: "1000000"}},
		},
		{
			// Wrong codec: skipped entirely
			Type:       CodecKindVideo,
			Codec:      "hevc",
			Conditions: []ProfileCondition{{Condition: ConditionLessThanEqual, Property: PropertyWidth, Value: "100"}},
		},
	}

	conditions := m.ApplicableCodecConditions(profiles, CodecKindVideo, "h264", "mkv", input)
	require.Len(t, conditions, 1)
	assert.Equal(t, PropertyVideoBitrate, conditions[0].Property)
	assert.Equal(t, "8000000", conditions[0].Value)
}

func TestApplicableContainerConditions(t *testing.T) {
	m := testMatcher()
	source := h264MkvSource()
	input := NewVideoConditionInput(source, source.VideoStream())

	profiles := []ContainerProfile{
		{Type: MediaKindVideo, Container: "mkv", Conditions: []ProfileCondition{{Condition: ConditionLessThanEqual, Property: PropertyHeight, Value: "2160"}}},
		{Type: MediaKindAudio, Container: "mkv", Conditions: []ProfileCondition{{Condition: ConditionLessThanEqual, Property: PropertyAudioChannels, Value: "2"}}},
		{Type: MediaKindVideo, Container: "mp4", Conditions: []ProfileCondition{{Condition: ConditionLessThanEqual, Property: PropertyHeight, Value: "720"}}},
	}

	conditions := m.ApplicableContainerConditions(profiles, MediaKindVideo, "mkv", input)
	require.Len(t, conditions, 1)
	assert.Equal(t, PropertyHeight, conditions[0].Property)
}

func TestAllSatisfiedShortCircuits(t *testing.T) {
	m := testMatcher()
	source := h264MkvSource()
	input := NewVideoConditionInput(source, source.VideoStream())

	conditions := []ProfileCondition{
		{Condition: ConditionLessThanEqual, Property: PropertyWidth, Value: "1920"},
		{Condition: ConditionLessThanEqual, Property: PropertyHeight, Value: "720"},
		// Never reached: the height condition already failed
		{Condition: ConditionGreaterThanEqual, Property: PropertyIsAvc, Value: "true"},
	}

	ok, err := m.AllSatisfied(conditions, input)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAllSatisfiedSurfacesMalformedCondition(t *testing.T) {
	m := testMatcher()
	source := h264MkvSource()
	input := NewVideoConditionInput(source, source.VideoStream())

	conditions := []ProfileCondition{
		{Condition: ConditionGreaterThanEqual, Property: PropertyIsAvc, Value: "true"},
	}

	_, err := m.AllSatisfied(conditions, input)
	assert.ErrorIs(t, err, ErrInvalidComparison)
}

func TestMatcherIsDeterministic(t *testing.T) {
	m := testMatcher()
	source := h264MkvSource()
	input := NewVideoConditionInput(source, source.VideoStream())
	profiles := []CodecProfile{
		{Type: CodecKindVideo, Codec: "h264", Conditions: []ProfileCondition{{Condition: ConditionLessThanEqual, Property: PropertyWidth, Value: "1920"}}},
	}

	first := m.ApplicableCodecConditions(profiles, CodecKindVideo, "h264", "mkv", input)
	second := m.ApplicableCodecConditions(profiles, CodecKindVideo, "h264", "mkv", input)
	assert.Equal(t, first, second)
}
