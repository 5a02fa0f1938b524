package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(v int) *int           { return &v }
func floatp(v float64) *float64 { return &v }
func boolp(v bool) *bool        { return &v }

func tsp(v TransportStreamTimestamp) *TransportStreamTimestamp { return &v }

func TestConditionUnknownValueHonorsIsRequired(t *testing.T) {
	tests := []struct {
		name       string
		isRequired bool
		want       bool
	}{
		{"optional condition passes on unknown", false, true},
		{"required condition fails on unknown", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := ProfileCondition{
				Condition:  ConditionLessThanEqual,
				Property:   PropertyWidth,
				Value:      "1920",
				IsRequired: tt.isRequired,
			}

			ok, err := satisfiesInt(c, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)

			okF, err := satisfiesFloat(ProfileCondition{Condition: ConditionLessThanEqual, Property: PropertyVideoLevel, Value: "41", IsRequired: tt.isRequired}, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, okF)

			okB, err := satisfiesBool(ProfileCondition{Condition: ConditionEquals, Property: PropertyIsAvc, Value: "true", IsRequired: tt.isRequired}, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, okB)

			okS, err := satisfiesString(ProfileCondition{Condition: ConditionEquals, Property: PropertyVideoProfile, Value: "high", IsRequired: tt.isRequired}, "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, okS)

			okT, err := satisfiesTimestamp(ProfileCondition{Condition: ConditionEquals, Property: PropertyVideoTimestamp, Value: "valid", IsRequired: tt.isRequired}, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, okT)
		})
	}
}

func TestConditionNumericComparisons(t *testing.T) {
	tests := []struct {
		name      string
		condition ConditionType
		value     string
		current   int
		want      bool
	}{
		{"lte below threshold", ConditionLessThanEqual, "1920", 1280, true},
		{"lte at threshold", ConditionLessThanEqual, "1920", 1920, true},
		{"lte above threshold", ConditionLessThanEqual, "1920", 3840, false},
		{"gte below threshold", ConditionGreaterThanEqual, "720", 480, false},
		{"gte at threshold", ConditionGreaterThanEqual, "720", 720, true},
		{"gte above threshold", ConditionGreaterThanEqual, "720", 1080, true},
		{"equals match", ConditionEquals, "2", 2, true},
		{"equals mismatch", ConditionEquals, "2", 6, false},
		{"not equals", ConditionNotEquals, "2", 6, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := ProfileCondition{Condition: tt.condition, Property: PropertyWidth, Value: tt.value}
			ok, err := satisfiesInt(c, intp(tt.current))
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestConditionUnparsableValueIsNonMatch(t *testing.T) {
	c := ProfileCondition{Condition: ConditionLessThanEqual, Property: PropertyWidth, Value: "not-a-number"}
	ok, err := satisfiesInt(c, intp(1280))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConditionEqualsAnyIsCaseInsensitive(t *testing.T) {
	c := ProfileCondition{Condition: ConditionEqualsAny, Property: PropertyVideoProfile, Value: "h264|hevc"}

	ok, err := satisfiesString(c, "HEVC")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = satisfiesString(c, "vp9")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConditionBooleanRejectsOrderingComparisons(t *testing.T) {
	c := ProfileCondition{Condition: ConditionGreaterThanEqual, Property: PropertyIsAvc, Value: "true"}
	_, err := satisfiesBool(c, boolp(true))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidComparison)
}

func TestConditionNumericRejectsEqualsAny(t *testing.T) {
	c := ProfileCondition{Condition: ConditionEqualsAny, Property: PropertyWidth, Value: "1280|1920"}
	_, err := satisfiesInt(c, intp(1920))
	assert.ErrorIs(t, err, ErrInvalidComparison)
}

func TestConditionTimestamp(t *testing.T) {
	c := ProfileCondition{Condition: ConditionNotEquals, Property: PropertyVideoTimestamp, Value: "valid"}

	ok, err := satisfiesTimestamp(c, tsp(TimestampZero))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = satisfiesTimestamp(c, tsp(TimestampValid))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVideoConditionInputDispatch(t *testing.T) {
	source := &MediaSourceInfo{
		Timestamp: tsp(TimestampValid),
		MediaStreams: []MediaStream{
			{Index: 0, Type: MediaStreamVideo, Codec: "h264", Width: intp(1920), Height: intp(1080), Profile: "high", Level: floatp(41), RefFrames: intp(4), IsAVC: boolp(true)},
			{Index: 1, Type: MediaStreamAudio, Codec: "aac"},
		},
	}
	input := NewVideoConditionInput(source, source.VideoStream())

	ok, err := input.Satisfies(ProfileCondition{Condition: ConditionLessThanEqual, Property: PropertyWidth, Value: "1920"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = input.Satisfies(ProfileCondition{Condition: ConditionEqualsAny, Property: PropertyVideoProfile, Value: "main|high"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = input.Satisfies(ProfileCondition{Condition: ConditionLessThanEqual, Property: PropertyVideoLevel, Value: "40"})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = input.Satisfies(ProfileCondition{Condition: ConditionEquals, Property: PropertyNumVideoStreams, Value: "1"})
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = input.Satisfies(ProfileCondition{Condition: ConditionEquals, Property: PropertyAudioChannels, Value: "2"})
	assert.ErrorIs(t, err, ErrInvalidComparison)
}

func TestVideoAudioConditionSecondaryAudio(t *testing.T) {
	source := &MediaSourceInfo{
		MediaStreams: []MediaStream{
			{Index: 0, Type: MediaStreamVideo, Codec: "h264"},
			{Index: 1, Type: MediaStreamAudio, Codec: "aac", Channels: intp(2)},
			{Index: 2, Type: MediaStreamAudio, Codec: "ac3", Channels: intp(6)},
		},
	}

	primary := NewVideoAudioConditionInput(source, &source.MediaStreams[1])
	ok, err := primary.Satisfies(ProfileCondition{Condition: ConditionEquals, Property: PropertyIsSecondaryAudio, Value: "false"})
	require.NoError(t, err)
	assert.True(t, ok)

	secondary := NewVideoAudioConditionInput(source, &source.MediaStreams[2])
	ok, err = secondary.Satisfies(ProfileCondition{Condition: ConditionEquals, Property: PropertyIsSecondaryAudio, Value: "false"})
	require.NoError(t, err)
	assert.False(t, ok)
}
