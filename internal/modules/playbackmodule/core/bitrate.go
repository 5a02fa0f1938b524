package core

import (
	"strconv"
	"strings"
)

const (
	// minViableVideoBitrate is the floor below which a transcoded video track
	// is not worth producing; the budget subtraction never goes lower.
	minViableVideoBitrate = 100000

	// Per-protocol audio ceilings. Segmented outputs are capped harder
	// because every variant carries the audio track.
	maxSegmentedAudioBitrate   = 384000
	maxProgressiveAudioBitrate = 640000
)

// defaultAudioBitrate is the codec-family fallback when the source stream
// does not report a bitrate: lossless families get generous room, and six or
// more channels double the compressed default.
func defaultAudioBitrate(codec string, channels *int) int {
	switch strings.ToLower(codec) {
	case "flac", "alac", "truehd", "mlp", "dts", "dca":
		return 960000
	}
	if channels != nil && *channels >= 6 {
		return 384000
	}
	return 192000
}

// maxAudioBitrateForTotal caps the audio share of a constrained overall
// budget so low-bandwidth sessions keep enough room for video.
func maxAudioBitrateForTotal(total int) int {
	switch {
	case total <= 640000:
		return 128000
	case total <= 2000000:
		return 384000
	case total <= 3000000:
		return 448000
	default:
		return 640000
	}
}

// audioBitrate computes the audio bitrate for a transcoded output: the source
// bitrate or codec-family default, halved toward the downmix default when the
// channel ceiling cuts the count, then capped per protocol and per budget.
func (b *StreamBuilder) audioBitrate(protocol SubProtocol, budget, targetChannels *int, codec string, stream *MediaStream) int {
	var sourceChannels *int
	bitrate := 0
	if stream != nil {
		sourceChannels = stream.Channels
		if stream.BitRate != nil && *stream.BitRate > 0 {
			bitrate = *stream.BitRate
		}
	}
	if bitrate <= 0 {
		bitrate = defaultAudioBitrate(codec, sourceChannels)
	}

	if targetChannels != nil && sourceChannels != nil && *targetChannels < *sourceChannels {
		if downmixed := defaultAudioBitrate(codec, targetChannels); downmixed < bitrate {
			bitrate = downmixed
		}
	}

	ceiling := maxProgressiveAudioBitrate
	if protocol == SubProtocolHLS {
		ceiling = maxSegmentedAudioBitrate
	}
	if bitrate > ceiling {
		bitrate = ceiling
	}

	if budget != nil {
		if budgetCap := maxAudioBitrateForTotal(*budget); bitrate > budgetCap {
			bitrate = budgetCap
		}
	}

	return bitrate
}

// applyVideoTranscodingConditions folds collected video codec conditions into
// the decision: numeric ceilings take the tighter of existing and declared
// values, boolean conditions raise requirement flags, and a profile condition
// pins the first listed profile. Unparsable values are skipped, matching the
// non-match semantics of evaluation.
func applyVideoTranscodingConditions(decision *StreamDecision, conditions []ProfileCondition) {
	for _, c := range conditions {
		switch c.Property {
		case PropertyVideoBitrate:
			if v := conditionIntValue(c); v != nil {
				decision.VideoBitrate = minIntPtr(decision.VideoBitrate, v)
			}
		case PropertyWidth:
			if v := conditionIntValue(c); v != nil {
				decision.MaxWidth = minIntPtr(decision.MaxWidth, v)
			}
		case PropertyHeight:
			if v := conditionIntValue(c); v != nil {
				decision.MaxHeight = minIntPtr(decision.MaxHeight, v)
			}
		case PropertyVideoBitDepth:
			if v := conditionIntValue(c); v != nil {
				decision.MaxVideoBitDepth = minIntPtr(decision.MaxVideoBitDepth, v)
			}
		case PropertyRefFrames:
			if v := conditionIntValue(c); v != nil {
				decision.MaxRefFrames = minIntPtr(decision.MaxRefFrames, v)
			}
		case PropertyVideoFramerate:
			if v := conditionFloatValue(c); v != nil {
				decision.MaxFramerate = minFloatPtr(decision.MaxFramerate, v)
			}
		case PropertyVideoLevel:
			if v := conditionFloatValue(c); v != nil {
				decision.MaxVideoLevel = minFloatPtr(decision.MaxVideoLevel, v)
			}
		case PropertyVideoProfile:
			if profile := firstListedValue(c.Value); profile != "" {
				decision.VideoProfile = profile
			}
		case PropertyIsAvc:
			if v, err := strconv.ParseBool(c.Value); err == nil {
				if (c.Condition == ConditionEquals && v) || (c.Condition == ConditionNotEquals && !v) {
					decision.RequireAvc = true
				}
			}
		case PropertyIsAnamorphic:
			if v, err := strconv.ParseBool(c.Value); err == nil {
				if (c.Condition == ConditionEquals && !v) || (c.Condition == ConditionNotEquals && v) {
					decision.RequireNonAnamorphic = true
				}
			}
		case PropertyIsInterlaced:
			if v, err := strconv.ParseBool(c.Value); err == nil {
				if (c.Condition == ConditionEquals && !v) || (c.Condition == ConditionNotEquals && v) {
					decision.DeInterlace = true
				}
			}
		}
	}
}

// applyAudioTranscodingConditions folds collected audio codec conditions into
// the decision's audio ceilings
func applyAudioTranscodingConditions(decision *StreamDecision, conditions []ProfileCondition) {
	for _, c := range conditions {
		switch c.Property {
		case PropertyAudioBitrate:
			if v := conditionIntValue(c); v != nil {
				decision.AudioBitrate = minIntPtr(decision.AudioBitrate, v)
			}
		case PropertyAudioChannels:
			if v := conditionIntValue(c); v != nil {
				decision.MaxAudioChannels = minIntPtr(decision.MaxAudioChannels, v)
			}
		}
	}
}

// conditionIntValue extracts a numeric ceiling from an upper-bounding
// condition. Lower bounds do not clamp.
func conditionIntValue(c ProfileCondition) *int {
	if c.Condition != ConditionEquals && c.Condition != ConditionLessThanEqual {
		return nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(c.Value))
	if err != nil || v < 0 {
		return nil
	}
	return &v
}

func conditionFloatValue(c ProfileCondition) *float64 {
	if c.Condition != ConditionEquals && c.Condition != ConditionLessThanEqual {
		return nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(c.Value), 64)
	if err != nil || v < 0 {
		return nil
	}
	return &v
}

func minFloatPtr(a, b *float64) *float64 {
	if a == nil {
		return b
	}
	if b == nil || *a < *b {
		return a
	}
	return b
}

// firstListedValue returns the first entry of a '|'-joined condition value
func firstListedValue(value string) string {
	for _, part := range strings.Split(value, "|") {
		if part = strings.TrimSpace(part); part != "" {
			return part
		}
	}
	return ""
}
