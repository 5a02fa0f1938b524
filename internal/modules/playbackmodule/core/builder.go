package core

import (
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// Precondition errors for negotiation requests. These are caller errors and
// are surfaced before any candidate is evaluated.
var (
	ErrMissingItemID       = errors.New("item id is required")
	ErrMissingDeviceID     = errors.New("device id is required")
	ErrMissingProfile      = errors.New("device profile is required")
	ErrMissingMediaSources = errors.New("at least one media source is required")
	ErrStreamIndexNoSource = errors.New("stream index selection requires an explicit media source id")
)

// StreamOptions are the caller-supplied inputs to one negotiation.
// Use NewStreamOptions so the direct path enables default on.
type StreamOptions struct {
	ItemID       string
	DeviceID     string
	Profile      *DeviceProfile
	MediaSources []*MediaSourceInfo

	// MediaSourceID restricts negotiation to one candidate source
	MediaSourceID string
	Context       EncodingContext

	// MaxBitrate overrides the profile's context ceiling when lower
	MaxBitrate *int

	AudioStreamIndex    *int
	SubtitleStreamIndex *int
	MaxAudioChannels    *int

	// Force flags honor the caller's external knowledge without validation
	ForceDirectPlay   bool
	ForceDirectStream bool

	EnableDirectPlay   bool
	EnableDirectStream bool
}

// NewStreamOptions returns options with both direct paths enabled
func NewStreamOptions() *StreamOptions {
	return &StreamOptions{
		Context:            ContextStreaming,
		EnableDirectPlay:   true,
		EnableDirectStream: true,
	}
}

func (o *StreamOptions) validate() error {
	if o.ItemID == "" {
		return ErrMissingItemID
	}
	if o.DeviceID == "" {
		return ErrMissingDeviceID
	}
	if o.Profile == nil {
		return ErrMissingProfile
	}
	if len(o.MediaSources) == 0 {
		return ErrMissingMediaSources
	}
	if (o.AudioStreamIndex != nil || o.SubtitleStreamIndex != nil) && o.MediaSourceID == "" {
		return ErrStreamIndexNoSource
	}
	return nil
}

// maxBitrateBudget is the effective overall bitrate ceiling for the request
func (o *StreamOptions) maxBitrateBudget(kind MediaKind) *int {
	budget := o.Profile.MaxBitrateFor(o.Context)
	if kind == MediaKindAudio && o.Context == ContextStreaming && o.Profile.MusicStreamingTranscodingBitrate != nil {
		budget = o.Profile.MusicStreamingTranscodingBitrate
	}
	if o.MaxBitrate != nil && (budget == nil || *o.MaxBitrate < *budget) {
		budget = o.MaxBitrate
	}
	return budget
}

// DecisionComparator orders two candidate decisions; negative means a is
// preferred. The default ranks direct play ahead of direct stream ahead of
// transcode, then prefers the higher source bitrate. Deployments with their
// own quality policy inject a replacement.
type DecisionComparator func(a, b *StreamDecision) int

// DefaultDecisionComparator is the standing preference ordering
func DefaultDecisionComparator(a, b *StreamDecision) int {
	if ra, rb := playMethodRank(a.PlayMethod), playMethodRank(b.PlayMethod); ra != rb {
		return ra - rb
	}
	return sourceBitrate(b) - sourceBitrate(a)
}

func playMethodRank(m PlayMethod) int {
	switch m {
	case PlayMethodDirectPlay:
		return 0
	case PlayMethodDirectStream:
		return 1
	default:
		return 2
	}
}

func sourceBitrate(d *StreamDecision) int {
	if d.MediaSource != nil && d.MediaSource.Bitrate != nil {
		return *d.MediaSource.Bitrate
	}
	return 0
}

// StreamBuilder is the playback negotiation engine. It is stateless apart
// from its collaborators and safe for concurrent use.
type StreamBuilder struct {
	transcoder TranscoderSupport
	matcher    *CapabilityMatcher
	compare    DecisionComparator
	logger     hclog.Logger
}

// NewStreamBuilder creates a builder using the default decision ordering
func NewStreamBuilder(transcoder TranscoderSupport, logger hclog.Logger) *StreamBuilder {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if transcoder == nil {
		transcoder = PermitAllTranscoder{}
	}
	return &StreamBuilder{
		transcoder: transcoder,
		matcher:    NewCapabilityMatcher(logger),
		compare:    DefaultDecisionComparator,
		logger:     logger.Named("stream-builder"),
	}
}

// SetComparator replaces the candidate preference ordering
func (b *StreamBuilder) SetComparator(compare DecisionComparator) {
	if compare != nil {
		b.compare = compare
	}
}

// BuildVideoItem negotiates playback of a video item. It returns nil without
// error when no candidate source yields a viable path.
func (b *StreamBuilder) BuildVideoItem(o *StreamOptions) (*StreamDecision, error) {
	if err := o.validate(); err != nil {
		return nil, err
	}
	var decisions []*StreamDecision
	for _, source := range b.candidateSources(o) {
		decision := b.buildVideoDecision(o, source)
		if decision != nil {
			decisions = append(decisions, decision)
		}
	}
	return b.pickBest(decisions), nil
}

// BuildAudioItem negotiates playback of an audio item
func (b *StreamBuilder) BuildAudioItem(o *StreamOptions) (*StreamDecision, error) {
	if err := o.validate(); err != nil {
		return nil, err
	}
	var decisions []*StreamDecision
	for _, source := range b.candidateSources(o) {
		decision := b.buildAudioDecision(o, source)
		if decision != nil {
			decisions = append(decisions, decision)
		}
	}
	return b.pickBest(decisions), nil
}

func (b *StreamBuilder) candidateSources(o *StreamOptions) []*MediaSourceInfo {
	if o.MediaSourceID == "" {
		return o.MediaSources
	}
	var matched []*MediaSourceInfo
	for _, source := range o.MediaSources {
		if source.ID == o.MediaSourceID {
			matched = append(matched, source)
		}
	}
	return matched
}

func (b *StreamBuilder) pickBest(decisions []*StreamDecision) *StreamDecision {
	if len(decisions) == 0 {
		return nil
	}
	sort.SliceStable(decisions, func(i, j int) bool {
		return b.compare(decisions[i], decisions[j]) < 0
	})
	return decisions[0]
}

func (b *StreamBuilder) newDecision(o *StreamOptions, source *MediaSourceInfo, kind MediaKind) *StreamDecision {
	return &StreamDecision{
		ItemID:      o.ItemID,
		DeviceID:    o.DeviceID,
		MediaType:   kind,
		MediaSource: source,
	}
}

// buildVideoDecision evaluates one candidate source for video playback,
// returning nil when the source yields no viable path.
func (b *StreamBuilder) buildVideoDecision(o *StreamOptions, source *MediaSourceInfo) *StreamDecision {
	decision := b.newDecision(o, source, MediaKindVideo)

	videoStream := source.VideoStream()

	audioIndex := o.AudioStreamIndex
	if audioIndex == nil {
		audioIndex = source.DefaultAudioStreamIndex
	}
	audioStream := source.GetDefaultAudioStream(audioIndex)
	if audioStream != nil {
		decision.AudioStreamIndex = &audioStream.Index
	}

	subtitleIndex := o.SubtitleStreamIndex
	if subtitleIndex == nil {
		subtitleIndex = source.DefaultSubtitleStreamIndex
	}
	var subtitleStream *MediaStream
	if subtitleIndex != nil && *subtitleIndex != -1 {
		subtitleStream = source.GetMediaStream(MediaStreamSubtitle, *subtitleIndex)
	}
	if subtitleStream != nil {
		decision.SubtitleStreamIndex = &subtitleStream.Index
	}

	// Callers with external knowledge can force direct delivery; no
	// validation is performed on their behalf.
	if o.ForceDirectPlay {
		decision.PlayMethod = PlayMethodDirectPlay
		decision.Container = source.Container
		return decision
	}
	if o.ForceDirectStream {
		decision.PlayMethod = PlayMethodDirectStream
		decision.Container = source.Container
		return decision
	}

	budget := o.maxBitrateBudget(MediaKindVideo)

	// A subtitle that can only be burned in rules out both direct paths.
	directSubtitlesOk := true
	if subtitleStream != nil {
		subtitleProfile := ResolveSubtitleProfile(subtitleStream, o.Profile.SubtitleProfiles, PlayMethodDirectStream, "", source.Container)
		if subtitleProfile.Method != SubtitleMethodEmbed && subtitleProfile.Method != SubtitleMethodExternal {
			directSubtitlesOk = false
		}
	}

	if directSubtitlesOk {
		eligible := b.isEligibleForDirectPath(o, source, MediaKindVideo, videoStream, audioStream, budget)
		if eligible {
			if o.EnableDirectPlay && source.SupportsDirectPlay {
				decision.PlayMethod = PlayMethodDirectPlay
				decision.Container = source.Container
				b.finishDirectSubtitles(decision, o, subtitleStream)
				return decision
			}
			if o.EnableDirectStream && source.SupportsDirectStream {
				decision.PlayMethod = PlayMethodDirectStream
				decision.Container = source.Container
				b.finishDirectSubtitles(decision, o, subtitleStream)
				return decision
			}
		}
	}

	if !source.SupportsTranscoding {
		b.logger.Debug("source not viable: no direct path and transcoding unsupported",
			"item", o.ItemID, "source", source.ID)
		return nil
	}

	profile := b.selectTranscodingProfile(o.Profile, MediaKindVideo, o.Context)
	if profile == nil {
		b.logger.Debug("no usable transcoding profile for video",
			"item", o.ItemID, "source", source.ID)
		return nil
	}

	decision.PlayMethod = PlayMethodTranscode
	decision.Container = profile.Container
	decision.Protocol = profile.Protocol
	decision.VideoCodecs = profile.VideoCodecs()
	decision.AudioCodecs = b.encodableAudioCodecs(profile.AudioCodecs())
	decision.CopyTimestamps = profile.CopyTimestamps
	decision.BreakOnNonKeyFrames = profile.BreakOnNonKeyFrames
	decision.EstimateContentLength = profile.EstimateContentLength
	decision.MinSegments = profile.MinSegments
	decision.SegmentLength = profile.SegmentLength
	decision.TranscodeSeekInfo = profile.TranscodeSeekInfo

	if subtitleStream != nil {
		subtitleProfile := ResolveSubtitleProfile(subtitleStream, o.Profile.SubtitleProfiles, PlayMethodTranscode, profile.Protocol, profile.Container)
		decision.SubtitleDeliveryMethod = subtitleProfile.Method
		decision.SubtitleFormat = subtitleProfile.Format
	}

	// Transcoding-time conditions clamp ceilings and set requirement flags.
	videoInput := NewVideoConditionInput(source, videoStream)
	targetVideoCodec := decision.TargetVideoCodec()
	videoConditions := b.matcher.ApplicableCodecConditions(o.Profile.CodecProfiles, CodecKindVideo, targetVideoCodec, profile.Container, videoInput)
	applyVideoTranscodingConditions(decision, videoConditions)

	audioInput := NewVideoAudioConditionInput(source, audioStream)
	targetAudioCodec := decision.TargetAudioCodec()
	audioConditions := b.matcher.ApplicableCodecConditions(o.Profile.CodecProfiles, CodecKindVideoAudio, targetAudioCodec, profile.Container, audioInput)
	applyAudioTranscodingConditions(decision, audioConditions)

	if maxChannels := parseMaxAudioChannels(profile.MaxAudioChannels); maxChannels != nil {
		decision.MaxAudioChannels = minIntPtr(decision.MaxAudioChannels, maxChannels)
	}
	if o.MaxAudioChannels != nil {
		decision.MaxAudioChannels = minIntPtr(decision.MaxAudioChannels, o.MaxAudioChannels)
	}

	audioBitrate := b.audioBitrate(profile.Protocol, budget, decision.MaxAudioChannels, targetAudioCodec, audioStream)
	decision.AudioBitrate = minIntPtr(decision.AudioBitrate, &audioBitrate)

	if budget != nil {
		videoBitrate := *budget
		if decision.AudioBitrate != nil {
			videoBitrate -= *decision.AudioBitrate
		}
		if videoBitrate < minViableVideoBitrate {
			videoBitrate = minViableVideoBitrate
		}
		decision.VideoBitrate = minIntPtr(decision.VideoBitrate, &videoBitrate)
	}

	return decision
}

// buildAudioDecision evaluates one candidate source for audio playback
func (b *StreamBuilder) buildAudioDecision(o *StreamOptions, source *MediaSourceInfo) *StreamDecision {
	decision := b.newDecision(o, source, MediaKindAudio)

	audioStream := source.GetDefaultAudioStream(o.AudioStreamIndex)
	if audioStream != nil {
		decision.AudioStreamIndex = &audioStream.Index
	}

	if o.ForceDirectPlay {
		decision.PlayMethod = PlayMethodDirectPlay
		decision.Container = source.Container
		return decision
	}
	if o.ForceDirectStream {
		decision.PlayMethod = PlayMethodDirectStream
		decision.Container = source.Container
		return decision
	}

	budget := o.maxBitrateBudget(MediaKindAudio)

	if b.isEligibleForDirectPath(o, source, MediaKindAudio, nil, audioStream, budget) {
		if o.EnableDirectPlay && source.SupportsDirectPlay {
			decision.PlayMethod = PlayMethodDirectPlay
			decision.Container = source.Container
			return decision
		}
		if o.EnableDirectStream && source.SupportsDirectStream {
			decision.PlayMethod = PlayMethodDirectStream
			decision.Container = source.Container
			return decision
		}
	}

	if !source.SupportsTranscoding {
		b.logger.Debug("source not viable: no direct path and transcoding unsupported",
			"item", o.ItemID, "source", source.ID)
		return nil
	}

	profile := b.selectTranscodingProfile(o.Profile, MediaKindAudio, o.Context)
	if profile == nil {
		b.logger.Debug("no usable transcoding profile for audio",
			"item", o.ItemID, "source", source.ID)
		return nil
	}

	decision.PlayMethod = PlayMethodTranscode
	decision.Container = profile.Container
	decision.Protocol = profile.Protocol
	decision.AudioCodecs = b.encodableAudioCodecs(profile.AudioCodecs())
	decision.EstimateContentLength = profile.EstimateContentLength
	decision.TranscodeSeekInfo = profile.TranscodeSeekInfo

	audioInput := NewAudioConditionInput(audioStream)
	targetAudioCodec := decision.TargetAudioCodec()
	conditions := b.matcher.ApplicableCodecConditions(o.Profile.CodecProfiles, CodecKindAudio, targetAudioCodec, profile.Container, audioInput)
	applyAudioTranscodingConditions(decision, conditions)

	if maxChannels := parseMaxAudioChannels(profile.MaxAudioChannels); maxChannels != nil {
		decision.MaxAudioChannels = minIntPtr(decision.MaxAudioChannels, maxChannels)
	}
	if o.MaxAudioChannels != nil {
		decision.MaxAudioChannels = minIntPtr(decision.MaxAudioChannels, o.MaxAudioChannels)
	}

	audioBitrate := b.audioBitrate(profile.Protocol, budget, decision.MaxAudioChannels, targetAudioCodec, audioStream)
	decision.AudioBitrate = minIntPtr(decision.AudioBitrate, &audioBitrate)

	return decision
}

// isEligibleForDirectPath runs the structural and conditional gates shared by
// direct play and direct stream: a matching direct play profile, every
// applicable container and codec condition, and the bitrate gate.
func (b *StreamBuilder) isEligibleForDirectPath(o *StreamOptions, source *MediaSourceInfo, kind MediaKind, videoStream, audioStream *MediaStream, budget *int) bool {
	matched := false
	for _, profile := range o.Profile.DirectPlayProfiles {
		if profile.Type != kind {
			continue
		}
		if b.matcher.IsDirectPlayEligible(profile, source, videoStream, audioStream) {
			matched = true
			break
		}
	}
	if !matched {
		b.logger.Debug("no direct play profile matches source",
			"item", o.ItemID, "source", source.ID, "container", source.Container)
		return false
	}

	if kind == MediaKindVideo {
		videoInput := NewVideoConditionInput(source, videoStream)

		conditions := b.matcher.ApplicableContainerConditions(o.Profile.ContainerProfiles, MediaKindVideo, source.Container, videoInput)
		if videoStream != nil {
			conditions = append(conditions, b.matcher.ApplicableCodecConditions(o.Profile.CodecProfiles, CodecKindVideo, videoStream.Codec, source.Container, videoInput)...)
		}
		if ok, err := b.matcher.AllSatisfied(conditions, videoInput); err != nil || !ok {
			b.logDirectPathRejection(o, source, err)
			return false
		}

		if audioStream != nil {
			audioInput := NewVideoAudioConditionInput(source, audioStream)
			audioConditions := b.matcher.ApplicableCodecConditions(o.Profile.CodecProfiles, CodecKindVideoAudio, audioStream.Codec, source.Container, audioInput)
			if ok, err := b.matcher.AllSatisfied(audioConditions, audioInput); err != nil || !ok {
				b.logDirectPathRejection(o, source, err)
				return false
			}
		}
	} else {
		audioInput := NewAudioConditionInput(audioStream)

		conditions := b.matcher.ApplicableContainerConditions(o.Profile.ContainerProfiles, MediaKindAudio, source.Container, audioInput)
		if audioStream != nil {
			conditions = append(conditions, b.matcher.ApplicableCodecConditions(o.Profile.CodecProfiles, CodecKindAudio, audioStream.Codec, source.Container, audioInput)...)
		}
		if ok, err := b.matcher.AllSatisfied(conditions, audioInput); err != nil || !ok {
			b.logDirectPathRejection(o, source, err)
			return false
		}
	}

	// Remote sources are exempt from the bitrate gate; the origin is trusted
	// to serve what it advertises.
	if !source.IsRemote && budget != nil {
		if source.Bitrate == nil || *source.Bitrate > *budget {
			b.logger.Debug("source bitrate over direct play budget",
				"item", o.ItemID, "source", source.ID, "budget", *budget)
			return false
		}
	}

	return true
}

func (b *StreamBuilder) logDirectPathRejection(o *StreamOptions, source *MediaSourceInfo, err error) {
	if err != nil {
		b.logger.Error("malformed profile condition while testing direct path",
			"item", o.ItemID, "source", source.ID, "path", source.Path, "error", err)
		return
	}
	b.logger.Debug("direct path conditions not satisfied",
		"item", o.ItemID, "source", source.ID, "path", source.Path)
}

// finishDirectSubtitles records subtitle delivery on a direct decision
func (b *StreamBuilder) finishDirectSubtitles(decision *StreamDecision, o *StreamOptions, subtitleStream *MediaStream) {
	if subtitleStream == nil {
		return
	}
	subtitleProfile := ResolveSubtitleProfile(subtitleStream, o.Profile.SubtitleProfiles, decision.PlayMethod, "", decision.Container)
	decision.SubtitleDeliveryMethod = subtitleProfile.Method
	decision.SubtitleFormat = subtitleProfile.Format
}

// selectTranscodingProfile returns the first matching transcoding profile
// whose audio codec list includes at least one encodable codec.
func (b *StreamBuilder) selectTranscodingProfile(profile *DeviceProfile, kind MediaKind, context EncodingContext) *TranscodingProfile {
	for _, tp := range profile.transcodingProfilesFor(kind, context) {
		if len(b.encodableAudioCodecs(tp.AudioCodecs())) > 0 {
			return tp
		}
		b.logger.Debug("transcoding profile skipped: no encodable audio codec",
			"container", tp.Container, "audio_codecs", tp.AudioCodec)
	}
	return nil
}

// encodableAudioCodecs filters a candidate codec list through the transcoder
func (b *StreamBuilder) encodableAudioCodecs(codecs []string) []string {
	out := make([]string, 0, len(codecs))
	for _, codec := range codecs {
		if b.transcoder.CanEncodeAudio(codec) {
			out = append(out, codec)
		}
	}
	return out
}

// parseMaxAudioChannels parses the lazily-typed channel ceiling of a
// transcoding profile. Malformed values degrade to "no limit".
func parseMaxAudioChannels(value string) *int {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	channels, err := strconv.Atoi(value)
	if err != nil || channels <= 0 {
		return nil
	}
	return &channels
}

// minIntPtr returns the tighter of two optional ceilings
func minIntPtr(a, b *int) *int {
	if a == nil {
		return b
	}
	if b == nil || *a < *b {
		return a
	}
	return b
}
