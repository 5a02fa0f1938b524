package core

import (
	"github.com/hashicorp/go-hclog"
)

// CapabilityMatcher answers whether a concrete container/codec/stream
// combination is structurally eligible for a direct path under a device
// profile, and collects the guarded conditions that apply to it. It holds no
// state beyond its logger; identical inputs always yield identical outputs.
type CapabilityMatcher struct {
	logger hclog.Logger
}

// NewCapabilityMatcher creates a matcher that logs rejection diagnostics to
// the given logger
func NewCapabilityMatcher(logger hclog.Logger) *CapabilityMatcher {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &CapabilityMatcher{logger: logger.Named("capability-matcher")}
}

// IsDirectPlayEligible reports whether the source's container and codecs are
// all listed (or wildcarded) by the direct play profile. A non-empty codec
// list disqualifies a source whose matching stream is absent or codec-less.
func (m *CapabilityMatcher) IsDirectPlayEligible(profile DirectPlayProfile, source *MediaSourceInfo, videoStream, audioStream *MediaStream) bool {
	if !containsIgnoreCase(profile.Containers(), source.Container) {
		return false
	}

	if videoCodecs := profile.VideoCodecs(); len(videoCodecs) > 0 {
		if videoStream == nil || videoStream.Codec == "" || !containsIgnoreCase(videoCodecs, videoStream.Codec) {
			return false
		}
	}

	if audioCodecs := profile.AudioCodecs(); len(audioCodecs) > 0 {
		if audioStream == nil || audioStream.Codec == "" || !containsIgnoreCase(audioCodecs, audioStream.Codec) {
			return false
		}
	}

	return true
}

// ApplicableContainerConditions folds the device's container profiles into
// the flat condition list that governs the given container. A profile whose
// guard fails contributes nothing; that is a skip, not a disqualification.
func (m *CapabilityMatcher) ApplicableContainerConditions(profiles []ContainerProfile, kind MediaKind, container string, input ConditionInput) []ProfileCondition {
	var conditions []ProfileCondition
	for _, profile := range profiles {
		if profile.Type != kind || !profile.ContainsContainer(container) {
			continue
		}
		if m.guardsPass(profile.ApplyConditions, input) {
			conditions = append(conditions, profile.Conditions...)
		}
	}
	return conditions
}

// ApplicableCodecConditions folds the device's codec profiles into the flat
// condition list that governs the given codec within the given container.
func (m *CapabilityMatcher) ApplicableCodecConditions(profiles []CodecProfile, kind CodecKind, codec, container string, input ConditionInput) []ProfileCondition {
	var conditions []ProfileCondition
	for _, profile := range profiles {
		if profile.Type != kind || !profile.ContainsAnyCodec(codec, container) {
			continue
		}
		if m.guardsPass(profile.ApplyConditions, input) {
			conditions = append(conditions, profile.Conditions...)
		}
	}
	return conditions
}

// guardsPass reports whether every guard condition holds for the stream.
// An invalid guard comparison skips the profile rather than failing the match,
// but is logged as a profile defect.
func (m *CapabilityMatcher) guardsPass(guards []ProfileCondition, input ConditionInput) bool {
	for _, guard := range guards {
		ok, err := input.Satisfies(guard)
		if err != nil {
			m.logger.Error("malformed guard condition in profile",
				"property", guard.Property, "condition", guard.Condition, "value", guard.Value, "error", err)
			return false
		}
		if !ok {
			return false
		}
	}
	return true
}

// AllSatisfied reports whether every collected condition holds for the
// stream, short-circuiting on the first failure. The failing condition is
// logged at debug level with its expected value; a malformed condition is
// surfaced through the error return.
func (m *CapabilityMatcher) AllSatisfied(conditions []ProfileCondition, input ConditionInput) (bool, error) {
	for _, condition := range conditions {
		ok, err := input.Satisfies(condition)
		if err != nil {
			return false, err
		}
		if !ok {
			m.logger.Debug("profile condition not satisfied",
				"property", condition.Property, "condition", condition.Condition,
				"expected", condition.Value, "required", condition.IsRequired)
			return false, nil
		}
	}
	return true, nil
}
