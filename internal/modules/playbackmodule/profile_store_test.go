package playbackmodule

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/playcast/internal/events"
	"github.com/mantonx/playcast/internal/modules/playbackmodule/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&DeviceProfileRecord{}))
	return db
}

func testStore(t *testing.T) *ProfileStore {
	t.Helper()
	return NewProfileStore(testDB(t), nil, hclog.NewNullLogger())
}

func TestProfileStoreSaveAndGet(t *testing.T) {
	store := testStore(t)

	profile := DefaultDeviceProfile()
	profile.Name = "living-room-tv"

	record, err := store.Save("living-room-tv", ProfileSourceAPI, profile)
	require.NoError(t, err)
	assert.NotEmpty(t, record.ID)
	assert.Equal(t, "living-room-tv", record.Name)
	assert.Equal(t, ProfileSourceAPI, record.Source)

	gotRecord, gotProfile, err := store.Get(record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, gotRecord.ID)
	assert.Equal(t, "living-room-tv", gotProfile.Name)
	assert.Equal(t, profile.MaxStreamingBitrate, gotProfile.MaxStreamingBitrate)
	assert.Len(t, gotProfile.DirectPlayProfiles, len(profile.DirectPlayProfiles))
}

func TestProfileStoreSaveUpsertsByName(t *testing.T) {
	store := testStore(t)

	first := DefaultDeviceProfile()
	first.Name = "tv"
	firstRecord, err := store.Save("tv", ProfileSourceAPI, first)
	require.NoError(t, err)

	second := DefaultDeviceProfile()
	second.Name = "tv"
	second.MaxStreamingBitrate = intPtr(8000000)
	secondRecord, err := store.Save("tv", ProfileSourceFile, second)
	require.NoError(t, err)

	// Same name keeps the original row
	assert.Equal(t, firstRecord.ID, secondRecord.ID)
	assert.Equal(t, ProfileSourceFile, secondRecord.Source)

	_, profile, err := store.GetByName("tv")
	require.NoError(t, err)
	require.NotNil(t, profile.MaxStreamingBitrate)
	assert.Equal(t, 8000000, *profile.MaxStreamingBitrate)

	records, err := store.List()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestProfileStoreGetMissing(t *testing.T) {
	store := testStore(t)

	_, _, err := store.Get("no-such-id")
	assert.Error(t, err)

	_, _, err = store.GetByName("no-such-name")
	assert.Error(t, err)
}

func TestProfileStoreDelete(t *testing.T) {
	store := testStore(t)

	record, err := store.Save("tv", ProfileSourceAPI, DefaultDeviceProfile())
	require.NoError(t, err)

	require.NoError(t, store.Delete(record.ID))

	err = store.Delete(record.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestProfileStoreListOrdersByName(t *testing.T) {
	store := testStore(t)

	for _, name := range []string{"zeta", "alpha", "mid"} {
		_, err := store.Save(name, ProfileSourceAPI, DefaultDeviceProfile())
		require.NoError(t, err)
	}

	records, err := store.List()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "alpha", records[0].Name)
	assert.Equal(t, "mid", records[1].Name)
	assert.Equal(t, "zeta", records[2].Name)
}

func TestProfileStoreDecodeMalformedBody(t *testing.T) {
	db := testDB(t)
	store := NewProfileStore(db, nil, hclog.NewNullLogger())

	record := &DeviceProfileRecord{
		ID:   "bad",
		Name: "bad",
		Body: "{not yaml: [",
	}
	require.NoError(t, db.Create(record).Error)

	_, _, err := store.Get("bad")
	assert.Error(t, err)
}

func TestProfileStoreLoadDirectory(t *testing.T) {
	store := testStore(t)
	dir := t.TempDir()

	named := &core.DeviceProfile{Name: "chromecast"}
	writeProfileFile(t, filepath.Join(dir, "cast.yaml"), named)

	// No Name field inside the file, so the file stem names it
	writeProfileFile(t, filepath.Join(dir, "roku.yml"), &core.DeviceProfile{})

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte("{{nope"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("ignored"), 0644))

	require.NoError(t, store.LoadDirectory(dir))

	_, profile, err := store.GetByName("chromecast")
	require.NoError(t, err)
	assert.Equal(t, "chromecast", profile.Name)

	_, _, err = store.GetByName("roku")
	require.NoError(t, err)

	records, err := store.List()
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestProfileStoreLoadDirectoryMissing(t *testing.T) {
	store := testStore(t)
	assert.NoError(t, store.LoadDirectory(filepath.Join(t.TempDir(), "missing")))
}

func TestProfileStorePublishesLifecycleEvents(t *testing.T) {
	bus := &recordingBus{}
	store := NewProfileStore(testDB(t), bus, hclog.NewNullLogger())

	record, err := store.Save("tv", ProfileSourceAPI, DefaultDeviceProfile())
	require.NoError(t, err)

	stored := bus.byType(events.EventProfileStored)
	require.Len(t, stored, 1)
	assert.Equal(t, record.ID, stored[0].Data["profile_id"])
	assert.Equal(t, "tv", stored[0].Data["name"])
	assert.Equal(t, ProfileSourceAPI, stored[0].Data["source"])

	require.NoError(t, store.Delete(record.ID))

	deleted := bus.byType(events.EventProfileDeleted)
	require.Len(t, deleted, 1)
	assert.Equal(t, record.ID, deleted[0].Data["profile_id"])

	// A failed delete publishes nothing
	assert.Error(t, store.Delete(record.ID))
	assert.Len(t, bus.byType(events.EventProfileDeleted), 1)
}

func writeProfileFile(t *testing.T, path string, profile *core.DeviceProfile) {
	t.Helper()
	data, err := yaml.Marshal(profile)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))
}
