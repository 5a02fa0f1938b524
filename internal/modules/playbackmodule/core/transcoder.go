package core

// TranscoderSupport reports what the deployment's transcoder can produce.
// A transcoding profile is only selected when its audio codec is confirmed
// encodable. The engine never invokes the transcoder itself.
type TranscoderSupport interface {
	CanEncodeAudio(codec string) bool
	CanEncodeSubtitle(codec string) bool
}

// PermitAllTranscoder assumes every codec is encodable. It is the default for
// deployments that trust their ffmpeg build, and the stand-in for tests.
type PermitAllTranscoder struct{}

// CanEncodeAudio always reports true
func (PermitAllTranscoder) CanEncodeAudio(codec string) bool { return true }

// CanEncodeSubtitle always reports true
func (PermitAllTranscoder) CanEncodeSubtitle(codec string) bool { return true }
