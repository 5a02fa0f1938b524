package core

import (
	"fmt"
	"strings"
)

// Transfer-mode and capability flag bits of the content features header.
// The rendered mask is these bits in hex followed by 24 zeros; devices parse
// the token literally.
const (
	flagDlnaV15                 = 1 << 20
	flagConnectionStall         = 1 << 21
	flagBackgroundTransferMode  = 1 << 22
	flagInteractiveTransferMode = 1 << 23
	flagStreamingTransferMode   = 1 << 24
)

// flagsToken renders a flag combination as the 32-character header token
func flagsToken(flags uint64) string {
	return fmt.Sprintf("%08X%024d", flags, 0)
}

// seekToken renders the two-character seek capability numeral: time-based
// seeking first, byte-based second. Time seeking needs the server in the loop
// and is only offered on transcoded output; byte seeking needs the literal
// file, or a transcode that declares byte-addressable output. Without a known
// runtime no seeking is advertised.
func seekToken(hasRuntime, isDirect bool, seekInfo TranscodeSeekInfo) string {
	if !hasRuntime {
		return "00"
	}
	token := "0"
	if !isDirect {
		token = "1"
	}
	if isDirect || seekInfo == TranscodeSeekBytes {
		return token + "1"
	}
	return token + "0"
}

// ContentFeatureBuilder renders the wire-protocol capability header that
// advertises a finalized stream decision to the receiving device.
type ContentFeatureBuilder struct {
	profile *DeviceProfile
}

// NewContentFeatureBuilder creates a builder that consults the device's
// response profiles before the built-in format table
func NewContentFeatureBuilder(profile *DeviceProfile) *ContentFeatureBuilder {
	return &ContentFeatureBuilder{profile: profile}
}

// BuildAudioHeader renders the capability header for an audio decision
func (b *ContentFeatureBuilder) BuildAudioHeader(decision *StreamDecision) string {
	audioStream := decision.TargetAudioStream()

	var bitrate, sampleRate, channels *int
	if decision.IsDirect() {
		if audioStream != nil {
			bitrate = audioStream.BitRate
			sampleRate = audioStream.SampleRate
			channels = audioStream.Channels
		}
	} else {
		bitrate = decision.AudioBitrate
		channels = decision.TargetAudioChannels()
		if audioStream != nil {
			sampleRate = audioStream.SampleRate
		}
	}

	orgPn := b.lookupResponseProfile(MediaKindAudio, decision.Container, "", decision.TargetAudioCodec(), nil, nil)
	if orgPn == "" {
		orgPn = resolveAudioFormat(decision.Container, bitrate, sampleRate, channels)
	}

	return b.renderHeader(orgPn, decision)
}

// BuildVideoHeader renders the capability headers for a video decision. A
// combination may legitimately resolve to several standard profile names;
// each becomes its own complete header string. When none resolve a single
// header without a profile token is still emitted.
func (b *ContentFeatureBuilder) BuildVideoHeader(decision *StreamDecision) []string {
	width := decision.TargetWidth()
	height := decision.TargetHeight()
	videoCodec := decision.TargetVideoCodec()
	audioCodec := decision.TargetAudioCodec()

	var orgPns []string
	if declared := b.lookupResponseProfile(MediaKindVideo, decision.Container, videoCodec, audioCodec, width, height); declared != "" {
		orgPns = splitValue(declared)
	}
	if len(orgPns) == 0 {
		orgPns = resolveVideoFormat(decision.Container, videoCodec, audioCodec, width, height, decision.TargetTimestamp())
	}
	if len(orgPns) == 0 {
		orgPns = []string{""}
	}

	headers := make([]string, 0, len(orgPns))
	for _, orgPn := range orgPns {
		headers = append(headers, b.renderHeader(orgPn, decision))
	}
	return headers
}

// BuildImageHeader renders the capability header for a static image
func (b *ContentFeatureBuilder) BuildImageHeader(container string, width, height *int) string {
	orgPn := b.lookupResponseProfile(MediaKindPhoto, container, "", "", width, height)
	if orgPn == "" {
		orgPn = resolveImageFormat(container, width, height)
	}

	// Images are fetched, not streamed
	flags := flagsToken(flagBackgroundTransferMode | flagInteractiveTransferMode | flagDlnaV15)

	header := fmt.Sprintf(";DLNA.ORG_OP=%s;DLNA.ORG_CI=%s;DLNA.ORG_FLAGS=%s", "01", "0", flags)
	if orgPn != "" {
		header = "DLNA.ORG_PN=" + orgPn + header
	}
	return strings.TrimPrefix(header, ";")
}

// renderHeader assembles profileToken;seekToken;nativeToken;flagsToken,
// trimming the leading separator when there is no profile token.
func (b *ContentFeatureBuilder) renderHeader(orgPn string, decision *StreamDecision) string {
	isDirect := decision.IsDirect()
	hasRuntime := decision.MediaSource != nil && decision.MediaSource.RunTimeTicks != nil && *decision.MediaSource.RunTimeTicks > 0

	orgOp := seekToken(hasRuntime, isDirect, decision.TranscodeSeekInfo)

	orgCi := "1"
	if isDirect {
		orgCi = "0"
	}

	flags := flagsToken(flagStreamingTransferMode | flagBackgroundTransferMode | flagInteractiveTransferMode | flagDlnaV15)

	header := fmt.Sprintf(";DLNA.ORG_OP=%s;DLNA.ORG_CI=%s;DLNA.ORG_FLAGS=%s", orgOp, orgCi, flags)
	if orgPn != "" {
		header = "DLNA.ORG_PN=" + orgPn + header
	}
	return strings.TrimPrefix(header, ";")
}

// lookupResponseProfile finds a device-declared capability token for the
// exact container/codec combination, honoring any attached conditions.
func (b *ContentFeatureBuilder) lookupResponseProfile(kind MediaKind, container, videoCodec, audioCodec string, width, height *int) string {
	if b.profile == nil {
		return ""
	}
	for _, rp := range b.profile.ResponseProfiles {
		if rp.Type != kind {
			continue
		}
		if !containsIgnoreCase(splitValue(rp.Container), container) {
			continue
		}
		if kind == MediaKindVideo && !matchesCodecList(rp.VideoCodec, videoCodec) {
			continue
		}
		if kind != MediaKindPhoto && !matchesCodecList(rp.AudioCodec, audioCodec) {
			continue
		}
		if !responseConditionsHold(rp.Conditions, width, height) {
			continue
		}
		return rp.OrgPn
	}
	return ""
}

// responseConditionsHold evaluates the dimension conditions a response
// profile may carry. Malformed conditions skip the profile.
func responseConditionsHold(conditions []ProfileCondition, width, height *int) bool {
	input := VideoConditionInput{Width: width, Height: height}
	for _, c := range conditions {
		ok, err := input.Satisfies(c)
		if err != nil || !ok {
			return false
		}
	}
	return true
}
