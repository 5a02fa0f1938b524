package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	streamingFlags = "01D00000" + "000000000000000000000000"
	fetchFlags     = "00D00000" + "000000000000000000000000"
)

func mp3Source() *MediaSourceInfo {
	ticks := int64(1800000000)
	return &MediaSourceInfo{
		ID:           "song-1",
		Container:    "mp3",
		RunTimeTicks: &ticks,
		MediaStreams: []MediaStream{
			{Index: 0, Type: MediaStreamAudio, Codec: "mp3", BitRate: intp(320000), SampleRate: intp(44100), Channels: intp(2)},
		},
	}
}

func TestSeekToken(t *testing.T) {
	tests := []struct {
		name       string
		hasRuntime bool
		isDirect   bool
		seekInfo   TranscodeSeekInfo
		want       string
	}{
		{"no runtime", false, true, TranscodeSeekAuto, "00"},
		{"direct byte seek", true, true, TranscodeSeekAuto, "01"},
		{"transcode time seek", true, false, TranscodeSeekAuto, "10"},
		{"transcode byte addressable", true, false, TranscodeSeekBytes, "11"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, seekToken(tt.hasRuntime, tt.isDirect, tt.seekInfo))
		})
	}
}

func TestFlagsTokenLength(t *testing.T) {
	token := flagsToken(flagStreamingTransferMode | flagBackgroundTransferMode | flagInteractiveTransferMode | flagDlnaV15)
	assert.Len(t, token, 32)
	assert.Equal(t, streamingFlags, token)
}

func TestBuildAudioHeaderDirectPlay(t *testing.T) {
	b := NewContentFeatureBuilder(nil)
	decision := &StreamDecision{
		MediaType:   MediaKindAudio,
		PlayMethod:  PlayMethodDirectPlay,
		Container:   "mp3",
		MediaSource: mp3Source(),
	}

	header := b.BuildAudioHeader(decision)
	assert.Equal(t, "DLNA.ORG_PN=MP3;DLNA.ORG_OP=01;DLNA.ORG_CI=0;DLNA.ORG_FLAGS="+streamingFlags, header)
}

func TestBuildAudioHeaderTranscode(t *testing.T) {
	b := NewContentFeatureBuilder(nil)
	decision := &StreamDecision{
		MediaType:   MediaKindAudio,
		PlayMethod:  PlayMethodTranscode,
		Container:   "mp3",
		AudioCodecs: []string{"mp3"},
		MediaSource: mp3Source(),
	}

	header := b.BuildAudioHeader(decision)
	assert.Equal(t, "DLNA.ORG_PN=MP3;DLNA.ORG_OP=10;DLNA.ORG_CI=1;DLNA.ORG_FLAGS="+streamingFlags, header)
}

func TestBuildAudioHeaderNoRuntimeDisablesSeeking(t *testing.T) {
	b := NewContentFeatureBuilder(nil)
	source := mp3Source()
	source.RunTimeTicks = nil
	decision := &StreamDecision{
		MediaType:   MediaKindAudio,
		PlayMethod:  PlayMethodDirectPlay,
		Container:   "mp3",
		MediaSource: source,
	}

	header := b.BuildAudioHeader(decision)
	assert.Contains(t, header, ";DLNA.ORG_OP=00;")
}

func TestBuildAudioHeaderAacBitrateTiers(t *testing.T) {
	b := NewContentFeatureBuilder(nil)
	source := mp3Source()
	source.Container = "m4a"
	source.MediaStreams[0].Codec = "aac"

	decision := &StreamDecision{
		MediaType:   MediaKindAudio,
		PlayMethod:  PlayMethodDirectPlay,
		Container:   "m4a",
		MediaSource: source,
	}
	assert.Contains(t, b.BuildAudioHeader(decision), "DLNA.ORG_PN=AAC_ISO_320;")

	source.MediaStreams[0].BitRate = intp(448000)
	assert.Contains(t, b.BuildAudioHeader(decision), "DLNA.ORG_PN=AAC_ISO;")
}

func TestBuildAudioHeaderResponseProfileOverride(t *testing.T) {
	profile := &DeviceProfile{
		ResponseProfiles: []ResponseProfile{
			{Type: MediaKindAudio, Container: "mp3", OrgPn: "CUSTOM_MP3"},
		},
	}
	b := NewContentFeatureBuilder(profile)
	decision := &StreamDecision{
		MediaType:   MediaKindAudio,
		PlayMethod:  PlayMethodDirectPlay,
		Container:   "mp3",
		MediaSource: mp3Source(),
	}

	assert.Contains(t, b.BuildAudioHeader(decision), "DLNA.ORG_PN=CUSTOM_MP3;")
}

func hdTsDecision() *StreamDecision {
	ticks := int64(36000000000)
	return &StreamDecision{
		MediaType:   MediaKindVideo,
		PlayMethod:  PlayMethodTranscode,
		Container:   "ts",
		VideoCodecs: []string{"h264"},
		AudioCodecs: []string{"aac"},
		MediaSource: &MediaSourceInfo{
			ID:           "movie-1",
			Container:    "mkv",
			RunTimeTicks: &ticks,
			MediaStreams: []MediaStream{
				{Index: 0, Type: MediaStreamVideo, Codec: "h264", Width: intp(1920), Height: intp(1080)},
				{Index: 1, Type: MediaStreamAudio, Codec: "dts", Channels: intp(6)},
			},
		},
	}
}

func TestBuildVideoHeaderTranscodeToTransportStream(t *testing.T) {
	b := NewContentFeatureBuilder(nil)

	headers := b.BuildVideoHeader(hdTsDecision())
	require.Len(t, headers, 1)

	// Transcoded mpegts carries valid timestamps, hence the _T suffix
	assert.Equal(t, "DLNA.ORG_PN=AVC_TS_MP_HD_AAC_MULT5_T;DLNA.ORG_OP=10;DLNA.ORG_CI=1;DLNA.ORG_FLAGS="+streamingFlags, headers[0])
}

func TestBuildVideoHeaderUnknownAudioFansOut(t *testing.T) {
	b := NewContentFeatureBuilder(nil)
	decision := hdTsDecision()
	decision.AudioCodecs = nil

	headers := b.BuildVideoHeader(decision)
	require.Len(t, headers, 3)
	assert.Contains(t, headers[0], "DLNA.ORG_PN=AVC_TS_MP_HD_AAC_MULT5_T;")
	assert.Contains(t, headers[1], "DLNA.ORG_PN=AVC_TS_MP_HD_MPEG1_L3_T;")
	assert.Contains(t, headers[2], "DLNA.ORG_PN=AVC_TS_MP_HD_AC3_T;")
}

func TestBuildVideoHeaderDirectMatroska(t *testing.T) {
	b := NewContentFeatureBuilder(nil)
	decision := hdTsDecision()
	decision.PlayMethod = PlayMethodDirectPlay
	decision.Container = "mkv"
	decision.VideoCodecs = nil
	decision.AudioCodecs = nil

	headers := b.BuildVideoHeader(decision)
	require.Len(t, headers, 1)
	assert.Equal(t, "DLNA.ORG_PN=MATROSKA;DLNA.ORG_OP=01;DLNA.ORG_CI=0;DLNA.ORG_FLAGS="+streamingFlags, headers[0])
}

func TestBuildVideoHeaderUnknownFormatOmitsProfileToken(t *testing.T) {
	b := NewContentFeatureBuilder(nil)
	decision := hdTsDecision()
	decision.Container = "webm"

	headers := b.BuildVideoHeader(decision)
	require.Len(t, headers, 1)
	assert.True(t, strings.HasPrefix(headers[0], "DLNA.ORG_OP="))
	assert.NotContains(t, headers[0], "DLNA.ORG_PN")
}

func TestBuildVideoHeaderResponseProfileList(t *testing.T) {
	profile := &DeviceProfile{
		ResponseProfiles: []ResponseProfile{
			{Type: MediaKindVideo, Container: "ts", VideoCodec: "h264", AudioCodec: "aac", OrgPn: "CUSTOM_A,CUSTOM_B"},
		},
	}
	b := NewContentFeatureBuilder(profile)

	headers := b.BuildVideoHeader(hdTsDecision())
	require.Len(t, headers, 2)
	assert.Contains(t, headers[0], "DLNA.ORG_PN=CUSTOM_A;")
	assert.Contains(t, headers[1], "DLNA.ORG_PN=CUSTOM_B;")
}

func TestBuildVideoHeaderResponseProfileConditionGated(t *testing.T) {
	profile := &DeviceProfile{
		ResponseProfiles: []ResponseProfile{
			{
				Type: MediaKindVideo, Container: "ts", VideoCodec: "h264", AudioCodec: "aac", OrgPn: "SD_ONLY",
				Conditions: []ProfileCondition{
					{Condition: ConditionLessThanEqual, Property: PropertyWidth, Value: "720", IsRequired: true},
				},
			},
		},
	}
	b := NewContentFeatureBuilder(profile)

	// 1920-wide output fails the condition, so the built-in table answers
	headers := b.BuildVideoHeader(hdTsDecision())
	require.Len(t, headers, 1)
	assert.Contains(t, headers[0], "DLNA.ORG_PN=AVC_TS_MP_HD_AAC_MULT5_T;")
}

func TestBuildImageHeader(t *testing.T) {
	b := NewContentFeatureBuilder(nil)

	header := b.BuildImageHeader("jpeg", intp(800), intp(600))
	assert.Equal(t, "DLNA.ORG_PN=JPEG_MED;DLNA.ORG_OP=01;DLNA.ORG_CI=0;DLNA.ORG_FLAGS="+fetchFlags, header)

	assert.Contains(t, b.BuildImageHeader("png", intp(100), intp(100)), "DLNA.ORG_PN=PNG_TN;")
	assert.Contains(t, b.BuildImageHeader("gif", intp(400), intp(300)), "DLNA.ORG_PN=GIF_LRG;")
}
