package playbackmodule

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mantonx/playcast/internal/events"
	"github.com/mantonx/playcast/internal/modules/playbackmodule/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingBus captures published events for assertions
type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) record(event events.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
	return nil
}

func (b *recordingBus) byType(eventType events.EventType) []events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []events.Event
	for _, event := range b.events {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}

func (b *recordingBus) Publish(ctx context.Context, event events.Event) error {
	return b.record(event)
}

func (b *recordingBus) PublishAsync(event events.Event) error {
	return b.record(event)
}

func (b *recordingBus) Subscribe(ctx context.Context, filter events.EventFilter, handler events.EventHandler) (*events.Subscription, error) {
	return nil, nil
}

func (b *recordingBus) Unsubscribe(subscriptionID string) error { return nil }

func (b *recordingBus) GetSubscriptions() []*events.Subscription { return nil }

func (b *recordingBus) GetEvents(filter events.EventFilter, limit, offset int) ([]events.Event, int64, error) {
	return nil, 0, nil
}

func (b *recordingBus) GetEventsByTimeRange(start, end time.Time, limit, offset int) ([]events.Event, int64, error) {
	return nil, 0, nil
}

func (b *recordingBus) GetStats() events.EventStats { return events.EventStats{} }

func (b *recordingBus) ClearEvents(ctx context.Context) error { return nil }

func (b *recordingBus) Start(ctx context.Context) error { return nil }

func (b *recordingBus) Stop(ctx context.Context) error { return nil }

func (b *recordingBus) Health() error { return nil }

func testManager(t *testing.T) *Manager {
	t.Helper()
	manager := NewManager(testDB(t), nil, &ManagerConfig{
		DefaultProfileName: "default",
	})
	require.NoError(t, manager.Initialize())
	t.Cleanup(func() { manager.Shutdown() })
	return manager
}

func int64Ptr(v int64) *int64 { return &v }

func mkvVideoSource() *core.MediaSourceInfo {
	return &core.MediaSourceInfo{
		ID:                   "source-1",
		Container:            "mkv",
		Bitrate:              intPtr(4000000),
		RunTimeTicks:         int64Ptr(36000000000),
		SupportsDirectPlay:   true,
		SupportsDirectStream: true,
		SupportsTranscoding:  true,
		MediaStreams: []core.MediaStream{
			{Index: 0, Type: core.MediaStreamVideo, Codec: "h264", Width: intPtr(1920), Height: intPtr(1080)},
			{Index: 1, Type: core.MediaStreamAudio, Codec: "aac", Channels: intPtr(2)},
		},
	}
}

func videoDecideRequest() *DecideRequest {
	return &DecideRequest{
		ItemID:       "item-1",
		DeviceID:     "device-1",
		MediaType:    core.MediaKindVideo,
		MediaSources: []*core.MediaSourceInfo{mkvVideoSource()},
	}
}

func TestManagerSeedsDefaultProfile(t *testing.T) {
	manager := testManager(t)

	record, profile, err := manager.Store().GetByName("default")
	require.NoError(t, err)
	assert.Equal(t, "default", record.Name)
	assert.Equal(t, "default", profile.Name)
	assert.NotEmpty(t, profile.DirectPlayProfiles)
}

func TestManagerInitializeIsIdempotent(t *testing.T) {
	manager := testManager(t)
	require.NoError(t, manager.Initialize())

	records, err := manager.Store().List()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestManagerDecideWithDefaultProfile(t *testing.T) {
	manager := testManager(t)

	response, err := manager.Decide(videoDecideRequest())
	require.NoError(t, err)
	require.NotNil(t, response.Decision)

	assert.Equal(t, core.PlayMethodDirectPlay, response.Decision.PlayMethod)
	assert.Equal(t, "mkv", response.Decision.Container)
	assert.NotEmpty(t, response.RequestID)
	assert.NotEmpty(t, response.ContentFeatures)
}

func TestManagerDecideWithInlineProfile(t *testing.T) {
	manager := testManager(t)

	req := videoDecideRequest()
	req.Profile = &core.DeviceProfile{
		Name: "inline",
		DirectPlayProfiles: []core.DirectPlayProfile{
			{Type: core.MediaKindVideo, Container: "mp4", VideoCodec: "h264", AudioCodec: "aac"},
		},
	}

	// The inline profile only direct-plays mp4, so the mkv source has no path
	response, err := manager.Decide(req)
	require.NoError(t, err)
	assert.Nil(t, response.Decision)
	assert.Empty(t, response.ContentFeatures)
	assert.NotEmpty(t, response.RequestID)
}

func TestManagerDecideWithStoredProfile(t *testing.T) {
	manager := testManager(t)

	profile := DefaultDeviceProfile()
	profile.Name = "bedroom"
	record, err := manager.Store().Save("bedroom", ProfileSourceAPI, profile)
	require.NoError(t, err)

	byName := videoDecideRequest()
	byName.ProfileName = "bedroom"
	response, err := manager.Decide(byName)
	require.NoError(t, err)
	require.NotNil(t, response.Decision)
	assert.Equal(t, core.PlayMethodDirectPlay, response.Decision.PlayMethod)

	byID := videoDecideRequest()
	byID.ProfileID = record.ID
	response, err = manager.Decide(byID)
	require.NoError(t, err)
	require.NotNil(t, response.Decision)
}

func TestManagerDecideUnknownProfile(t *testing.T) {
	manager := testManager(t)

	req := videoDecideRequest()
	req.ProfileName = "nonexistent"
	_, err := manager.Decide(req)
	assert.ErrorIs(t, err, ErrProfileNotFound)

	req = videoDecideRequest()
	req.ProfileID = "nonexistent-id"
	_, err = manager.Decide(req)
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestManagerDecideUnsupportedMediaType(t *testing.T) {
	manager := testManager(t)

	req := videoDecideRequest()
	req.MediaType = core.MediaKind("Photo")
	_, err := manager.Decide(req)
	assert.ErrorIs(t, err, ErrUnsupportedMediaType)
}

func TestManagerDecideAudio(t *testing.T) {
	manager := testManager(t)

	req := &DecideRequest{
		ItemID:    "track-1",
		DeviceID:  "device-1",
		MediaType: core.MediaKindAudio,
		MediaSources: []*core.MediaSourceInfo{{
			ID:                   "source-1",
			Container:            "mp3",
			Bitrate:              intPtr(320000),
			RunTimeTicks:         int64Ptr(1800000000),
			SupportsDirectPlay:   true,
			SupportsDirectStream: true,
			SupportsTranscoding:  true,
			MediaStreams: []core.MediaStream{
				{Index: 0, Type: core.MediaStreamAudio, Codec: "mp3", Channels: intPtr(2)},
			},
		}},
	}

	response, err := manager.Decide(req)
	require.NoError(t, err)
	require.NotNil(t, response.Decision)
	assert.Equal(t, core.PlayMethodDirectPlay, response.Decision.PlayMethod)
	assert.Len(t, response.ContentFeatures, 1)
	assert.Contains(t, response.ContentFeatures[0], "DLNA.ORG_PN=MP3")
}

func TestManagerDecideRespectsDisableFlags(t *testing.T) {
	manager := testManager(t)

	off := false
	req := videoDecideRequest()
	req.EnableDirectPlay = &off
	req.EnableDirectStream = &off

	response, err := manager.Decide(req)
	require.NoError(t, err)
	require.NotNil(t, response.Decision)
	assert.Equal(t, core.PlayMethodTranscode, response.Decision.PlayMethod)
}

func TestManagerDecideInfersSourceBitrateFromStreams(t *testing.T) {
	manager := testManager(t)

	req := videoDecideRequest()
	source := req.MediaSources[0]
	source.Bitrate = nil
	source.MediaStreams[0].BitRate = intPtr(4800000)
	source.MediaStreams[1].BitRate = intPtr(192000)

	response, err := manager.Decide(req)
	require.NoError(t, err)
	require.NotNil(t, response.Decision)

	// The stream sum stands in for the missing container bitrate, so the
	// source still clears the direct-path gate
	assert.Equal(t, core.PlayMethodDirectPlay, response.Decision.PlayMethod)
	require.NotNil(t, response.Decision.MediaSource.Bitrate)
	assert.Equal(t, 4992000, *response.Decision.MediaSource.Bitrate)
}

func TestManagerPublishesDecisionEvent(t *testing.T) {
	bus := &recordingBus{}
	manager := NewManager(testDB(t), bus, &ManagerConfig{DefaultProfileName: "default"})
	require.NoError(t, manager.Initialize())
	defer manager.Shutdown()

	response, err := manager.Decide(videoDecideRequest())
	require.NoError(t, err)
	require.NotNil(t, response.Decision)

	published := bus.byType(events.EventPlaybackDecision)
	require.Len(t, published, 1)
	assert.Equal(t, "item-1", published[0].Data["item_id"])
	assert.Equal(t, string(core.PlayMethodDirectPlay), published[0].Data["play_method"])
	assert.Equal(t, 4000000, published[0].Data["total_bitrate"])
}

func TestManagerHealth(t *testing.T) {
	manager := testManager(t)

	health := manager.Health()
	assert.Equal(t, true, health["initialized"])
	assert.Equal(t, int64(1), health["profiles"])
}
