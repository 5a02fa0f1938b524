package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func srtStream() *MediaStream {
	return &MediaStream{
		Index:                  2,
		Type:                   MediaStreamSubtitle,
		Codec:                  "srt",
		Language:               "eng",
		SupportsExternalStream: true,
	}
}

func pgsStream() *MediaStream {
	return &MediaStream{
		Index:    2,
		Type:     MediaStreamSubtitle,
		Codec:    "pgssub",
		Language: "eng",
	}
}

func TestResolveSubtitleEmbedExactFormat(t *testing.T) {
	profiles := []SubtitleProfile{
		{Format: "srt", Method: SubtitleMethodEmbed, Language: "eng"},
	}

	resolved := ResolveSubtitleProfile(srtStream(), profiles, PlayMethodDirectStream, "", "mkv")
	assert.Equal(t, SubtitleMethodEmbed, resolved.Method)
	assert.Equal(t, "srt", resolved.Format)
}

func TestResolveSubtitleEmbedWithConversion(t *testing.T) {
	stream := srtStream()
	stream.Codec = "ass"

	profiles := []SubtitleProfile{
		{Format: "srt", Method: SubtitleMethodEmbed},
	}

	resolved := ResolveSubtitleProfile(stream, profiles, PlayMethodDirectStream, "", "mkv")
	assert.Equal(t, SubtitleMethodEmbed, resolved.Method)
	assert.Equal(t, "srt", resolved.Format)
}

func TestResolveSubtitleEmbedRejectedForTransportStreamTarget(t *testing.T) {
	profiles := []SubtitleProfile{
		{Format: "srt", Method: SubtitleMethodEmbed},
	}

	// Transcoding into mpegts cannot embed; the encode fallback applies
	resolved := ResolveSubtitleProfile(srtStream(), profiles, PlayMethodTranscode, SubProtocolHTTP, "ts")
	assert.Equal(t, SubtitleMethodEncode, resolved.Method)

	// Into matroska embedding is fine
	resolved = ResolveSubtitleProfile(srtStream(), profiles, PlayMethodTranscode, SubProtocolHTTP, "mkv")
	assert.Equal(t, SubtitleMethodEmbed, resolved.Method)
}

func TestResolveSubtitleSegmentedOutputSkipsEmbed(t *testing.T) {
	profiles := []SubtitleProfile{
		{Format: "srt", Method: SubtitleMethodEmbed},
		{Format: "vtt", Method: SubtitleMethodHls},
	}

	resolved := ResolveSubtitleProfile(srtStream(), profiles, PlayMethodTranscode, SubProtocolHLS, "ts")
	assert.Equal(t, SubtitleMethodHls, resolved.Method)
	assert.Equal(t, "vtt", resolved.Format)
}

func TestResolveSubtitleExternalStream(t *testing.T) {
	stream := srtStream()
	stream.IsExternal = true

	profiles := []SubtitleProfile{
		{Format: "srt", Method: SubtitleMethodEmbed},
		{Format: "srt", Method: SubtitleMethodExternal},
	}

	// External streams never embed
	resolved := ResolveSubtitleProfile(stream, profiles, PlayMethodDirectPlay, "", "mkv")
	assert.Equal(t, SubtitleMethodExternal, resolved.Method)
}

func TestResolveSubtitleHlsOnlyWhenTranscoding(t *testing.T) {
	stream := srtStream()
	stream.IsExternal = true

	profiles := []SubtitleProfile{
		{Format: "srt", Method: SubtitleMethodHls},
	}

	resolved := ResolveSubtitleProfile(stream, profiles, PlayMethodDirectPlay, "", "mkv")
	assert.Equal(t, SubtitleMethodEncode, resolved.Method)
}

func TestResolveSubtitleLanguageFilter(t *testing.T) {
	profiles := []SubtitleProfile{
		{Format: "srt", Method: SubtitleMethodEmbed, Language: "ger,fre"},
		{Format: "srt", Method: SubtitleMethodExternal, Language: "eng"},
	}

	resolved := ResolveSubtitleProfile(srtStream(), profiles, PlayMethodDirectStream, "", "mkv")
	assert.Equal(t, SubtitleMethodExternal, resolved.Method)
}

func TestResolveSubtitleGraphicalNeverConverts(t *testing.T) {
	profiles := []SubtitleProfile{
		{Format: "srt", Method: SubtitleMethodExternal},
	}

	resolved := ResolveSubtitleProfile(pgsStream(), profiles, PlayMethodTranscode, SubProtocolHTTP, "ts")
	assert.Equal(t, SubtitleMethodEncode, resolved.Method)
	assert.Equal(t, "pgssub", resolved.Format)
}

func TestResolveSubtitleFallbackAlwaysApplies(t *testing.T) {
	resolved := ResolveSubtitleProfile(srtStream(), nil, PlayMethodDirectPlay, "", "mkv")
	assert.Equal(t, SubtitleMethodEncode, resolved.Method)
	assert.Equal(t, "srt", resolved.Format)
}
