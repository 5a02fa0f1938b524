package playbackmodule

import "github.com/mantonx/playcast/internal/modules/playbackmodule/core"

func intPtr(v int) *int { return &v }

// DefaultDeviceProfile is a conservative baseline for clients that never
// declared their capabilities: common containers direct play, everything
// else becomes an h264/aac transport stream.
func DefaultDeviceProfile() *core.DeviceProfile {
	return &core.DeviceProfile{
		Name:                "default",
		MaxStreamingBitrate: intPtr(20000000),
		MaxStaticBitrate:    intPtr(100000000),

		MusicStreamingTranscodingBitrate: intPtr(192000),

		DirectPlayProfiles: []core.DirectPlayProfile{
			{
				Type:       core.MediaKindVideo,
				Container:  "mp4,m4v",
				VideoCodec: "h264,hevc,mpeg4",
				AudioCodec: "aac,mp3,ac3",
			},
			{
				Type:       core.MediaKindVideo,
				Container:  "mkv",
				VideoCodec: "h264,hevc,vp9",
				AudioCodec: "aac,mp3,ac3,opus,flac",
			},
			{
				Type:      core.MediaKindAudio,
				Container: "mp3,flac,m4a,ogg,wav",
			},
		},

		TranscodingProfiles: []core.TranscodingProfile{
			{
				Type:             core.MediaKindVideo,
				Container:        "ts",
				VideoCodec:       "h264",
				AudioCodec:       "aac,mp3",
				Context:          core.ContextStreaming,
				Protocol:         core.SubProtocolHLS,
				MaxAudioChannels: "6",
				MinSegments:      1,
				SegmentLength:    6,
			},
			{
				Type:             core.MediaKindVideo,
				Container:        "mp4",
				VideoCodec:       "h264",
				AudioCodec:       "aac",
				Context:          core.ContextStatic,
				Protocol:         core.SubProtocolHTTP,
				MaxAudioChannels: "6",
			},
			{
				Type:       core.MediaKindAudio,
				Container:  "mp3",
				AudioCodec: "mp3",
				Context:    core.ContextStreaming,
				Protocol:   core.SubProtocolHTTP,
			},
		},

		CodecProfiles: []core.CodecProfile{
			{
				Type:  core.CodecKindVideo,
				Codec: "h264",
				Conditions: []core.ProfileCondition{
					{Condition: core.ConditionLessThanEqual, Property: core.PropertyVideoLevel, Value: "51"},
					{Condition: core.ConditionNotEquals, Property: core.PropertyIsAnamorphic, Value: "true"},
				},
			},
		},

		SubtitleProfiles: []core.SubtitleProfile{
			{Format: "srt", Method: core.SubtitleMethodExternal},
			{Format: "vtt", Method: core.SubtitleMethodHls},
			{Format: "srt", Method: core.SubtitleMethodEmbed},
			{Format: "ass", Method: core.SubtitleMethodEmbed},
		},
	}
}
