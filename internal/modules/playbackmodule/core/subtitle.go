package core

import "strings"

// containersWithoutEmbedding are target containers that cannot carry the
// subtitle formats devices ask to embed: transport streams and the MP4 family.
// Matroska-family containers embed freely.
var containersWithoutEmbedding = map[string]bool{
	"ts":     true,
	"mpegts": true,
	"m2ts":   true,
	"mts":    true,
	"mp4":    true,
	"m4v":    true,
	"mov":    true,
}

// supportsSubtitleEmbedding reports whether a target container can carry an
// embedded subtitle track
func supportsSubtitleEmbedding(container string) bool {
	return !containersWithoutEmbedding[strings.ToLower(container)]
}

// ResolveSubtitleProfile chooses the delivery method for one subtitle stream.
// Resolution order: embed as-is, embed with conversion, external/HLS as-is,
// external/HLS with conversion, then the server-side encode fallback.
// Resolution never fails; the fallback always applies, and callers must treat
// an Encode result as a forced transcode when a direct path was in play.
func ResolveSubtitleProfile(stream *MediaStream, profiles []SubtitleProfile, playMethod PlayMethod, transcodingSubProtocol SubProtocol, transcodingContainer string) SubtitleProfile {
	segmented := playMethod == PlayMethodTranscode && transcodingSubProtocol == SubProtocolHLS

	// Embedding keeps the subtitle muxed into the output, which is only
	// possible for internal streams and non-segmented outputs.
	if !stream.IsExternal && !segmented {
		for _, profile := range profiles {
			if profile.Method != SubtitleMethodEmbed || !profile.SupportsLanguage(stream.Language) {
				continue
			}
			if playMethod == PlayMethodTranscode && !supportsSubtitleEmbedding(transcodingContainer) {
				continue
			}
			if subtitleFormatMatches(stream, profile.Format) {
				return profile
			}
		}
		for _, profile := range profiles {
			if profile.Method != SubtitleMethodEmbed || !profile.SupportsLanguage(stream.Language) {
				continue
			}
			if playMethod == PlayMethodTranscode && !supportsSubtitleEmbedding(transcodingContainer) {
				continue
			}
			if stream.SupportsSubtitleConversionTo(profile.Format) {
				return profile
			}
		}
	}

	for _, profile := range profiles {
		if !sidecarMethodAllowed(profile.Method, playMethod) || !profile.SupportsLanguage(stream.Language) {
			continue
		}
		if subtitleFormatMatches(stream, profile.Format) {
			return profile
		}
	}
	for _, profile := range profiles {
		if !sidecarMethodAllowed(profile.Method, playMethod) || !profile.SupportsLanguage(stream.Language) {
			continue
		}
		if stream.SupportsExternalStream && stream.SupportsSubtitleConversionTo(profile.Format) {
			return profile
		}
	}

	return SubtitleProfile{
		Method: SubtitleMethodEncode,
		Format: stream.Codec,
	}
}

// sidecarMethodAllowed reports whether a sidecar delivery method applies for
// the play method. HLS side channels only exist on transcoded output.
func sidecarMethodAllowed(method SubtitleDeliveryMethod, playMethod PlayMethod) bool {
	switch method {
	case SubtitleMethodExternal:
		return true
	case SubtitleMethodHls:
		return playMethod == PlayMethodTranscode
	}
	return false
}

// subtitleCodecAliases folds the spellings probers and profiles use for the
// same subtitle format onto one name.
var subtitleCodecAliases = map[string]string{
	"subrip": "srt",
	"webvtt": "vtt",
	"sami":   "smi",
	"pgssub": "pgs",
	"dvbsub": "dvb_subtitle",
}

func normalizeSubtitleCodec(codec string) string {
	codec = strings.ToLower(codec)
	if alias, ok := subtitleCodecAliases[codec]; ok {
		return alias
	}
	return codec
}

// subtitleFormatMatches reports whether the stream already is the profile's
// format, including agreement on text versus image subtitles.
func subtitleFormatMatches(stream *MediaStream, format string) bool {
	if format == "" {
		return false
	}
	if normalizeSubtitleCodec(stream.Codec) != normalizeSubtitleCodec(format) {
		return false
	}
	return stream.IsTextSubtitleStream() == textSubtitleCodecs[strings.ToLower(format)]
}
