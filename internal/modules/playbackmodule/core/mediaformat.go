package core

import "strings"

// Standard format profile names advertised in capability headers. Receiving
// devices match these tokens literally, so the spellings are fixed.
const (
	formatMP3  = "MP3"
	formatFLAC = "FLAC"
	formatOGG  = "OGG"
	formatLPCM = "LPCM"

	formatAACIso    = "AAC_ISO"
	formatAACIso320 = "AAC_ISO_320"
	formatWMABase   = "WMABASE"
	formatWMAFull   = "WMAFULL"
	formatWMAPro    = "WMAPRO"

	formatAVI      = "AVI"
	formatMatroska = "MATROSKA"

	formatMpegPsNTSC = "MPEG_PS_NTSC"
	formatMpegPsPAL  = "MPEG_PS_PAL"

	formatJpegTN  = "JPEG_TN"
	formatJpegSM  = "JPEG_SM"
	formatJpegMED = "JPEG_MED"
	formatJpegLRG = "JPEG_LRG"
	formatPngTN   = "PNG_TN"
	formatPngLRG  = "PNG_LRG"
	formatGifLRG  = "GIF_LRG"
)

// resolveAudioFormat maps an audio container/codec combination to its
// standard profile name, empty when no standard name exists.
func resolveAudioFormat(container string, bitrate, sampleRate, channels *int) string {
	switch strings.ToLower(container) {
	case "mp3":
		return formatMP3
	case "flac":
		return formatFLAC
	case "ogg", "oga", "opus":
		return formatOGG
	case "wav":
		return formatLPCM
	case "mp4", "m4a", "aac":
		if bitrate != nil && *bitrate <= 320000 {
			return formatAACIso320
		}
		return formatAACIso
	case "asf", "wma":
		if bitrate == nil || *bitrate <= 193000 {
			return formatWMABase
		}
		return formatWMAFull
	}
	return ""
}

// resolveImageFormat maps an image container and dimensions to its standard
// profile name
func resolveImageFormat(container string, width, height *int) string {
	switch strings.ToLower(container) {
	case "jpg", "jpeg":
		switch {
		case fitsWithin(width, height, 160, 160):
			return formatJpegTN
		case fitsWithin(width, height, 640, 480):
			return formatJpegSM
		case fitsWithin(width, height, 1024, 768):
			return formatJpegMED
		default:
			return formatJpegLRG
		}
	case "png":
		if fitsWithin(width, height, 160, 160) {
			return formatPngTN
		}
		return formatPngLRG
	case "gif":
		return formatGifLRG
	}
	return ""
}

func fitsWithin(width, height *int, maxWidth, maxHeight int) bool {
	return width != nil && height != nil && *width <= maxWidth && *height <= maxHeight
}

// resolveVideoFormat maps a video container/codec combination to its
// candidate standard profile names. An unknown audio codec widens the result
// to every plausible variant; devices pick the one they recognize.
func resolveVideoFormat(container, videoCodec, audioCodec string, width, height *int, timestamp TransportStreamTimestamp) []string {
	container = strings.ToLower(container)
	videoCodec = strings.ToLower(videoCodec)
	audioCodec = strings.ToLower(audioCodec)

	switch container {
	case "ts", "mpegts", "m2ts", "mts":
		return resolveTransportStreamFormat(videoCodec, audioCodec, width, height, timestamp)
	case "mp4", "m4v", "mov":
		return resolveMp4Format(videoCodec, audioCodec, width, height)
	case "mpeg", "mpg", "ps":
		return []string{formatMpegPsNTSC, formatMpegPsPAL}
	case "avi":
		return []string{formatAVI}
	case "mkv", "matroska":
		return []string{formatMatroska}
	case "asf", "wmv":
		return resolveWmvFormat(audioCodec, width, height)
	}
	return nil
}

func resolveTransportStreamFormat(videoCodec, audioCodec string, width, height *int, timestamp TransportStreamTimestamp) []string {
	// Transport stream names carry a suffix for the timestamp layout
	suffix := ""
	switch timestamp {
	case TimestampNone:
		suffix = "_ISO"
	case TimestampValid:
		suffix = "_T"
	}

	if videoCodec != "h264" {
		if videoCodec == "mpeg2video" {
			return []string{"MPEG_TS_SD_NA" + suffix}
		}
		return nil
	}

	resolution := "SD"
	if (width != nil && *width > 720) || (height != nil && *height > 576) {
		resolution = "HD"
	}

	base := "AVC_TS_MP_" + resolution
	switch audioCodec {
	case "aac":
		return []string{base + "_AAC_MULT5" + suffix}
	case "mp3":
		return []string{base + "_MPEG1_L3" + suffix}
	case "ac3":
		return []string{base + "_AC3" + suffix}
	case "":
		return []string{
			base + "_AAC_MULT5" + suffix,
			base + "_MPEG1_L3" + suffix,
			base + "_AC3" + suffix,
		}
	}
	return nil
}

func resolveMp4Format(videoCodec, audioCodec string, width, height *int) []string {
	switch videoCodec {
	case "h264":
		base := "AVC_MP4_MP_SD"
		if (width != nil && *width > 720) || (height != nil && *height > 576) {
			base = "AVC_MP4_MP_HD_720p"
			if (width != nil && *width > 1280) || (height != nil && *height > 720) {
				base = "AVC_MP4_MP_HD_1080i"
			}
			// HD MP4 names already encode the audio codec
			return []string{base + "_AAC"}
		}
		switch audioCodec {
		case "aac":
			return []string{base + "_AAC_MULT5"}
		case "mp3":
			return []string{base + "_MPEG1_L3"}
		case "ac3":
			return []string{base + "_AC3"}
		case "":
			return []string{base + "_AAC_MULT5", base + "_MPEG1_L3", base + "_AC3"}
		}
	case "mpeg4", "msmpeg4":
		switch audioCodec {
		case "aac", "":
			return []string{"MPEG4_P2_MP4_ASP_AAC"}
		}
	case "h263":
		return []string{"MPEG4_H263_MP4_P0_L10_AAC"}
	}
	return nil
}

func resolveWmvFormat(audioCodec string, width, height *int) []string {
	tier := "WMVHIGH"
	if fitsWithin(width, height, 720, 576) {
		tier = "WMVMED"
	}
	if fitsWithin(width, height, 176, 144) {
		tier = "WMVSPLL"
	}
	switch audioCodec {
	case "wmapro":
		return []string{tier + "_PRO"}
	case "wmav2", "wma", "":
		return []string{tier + "_FULL"}
	}
	return []string{tier + "_FULL"}
}
