package schedule

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/airwavetv/airwave/internal/catalog"
	"github.com/airwavetv/airwave/internal/db"
	"github.com/airwavetv/airwave/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testEpoch = time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC)

// setupTestService creates a service with a test database
func setupTestService(t *testing.T) (*Service, *db.Repositories, func()) {
	tmpFile := filepath.Join(t.TempDir(), "test.db")
	database, err := db.New(tmpFile)
	require.NoError(t, err)

	sqlDB, err := database.GetSQLDB()
	require.NoError(t, err)

	err = db.RunMigrations(sqlDB, "file://../../migrations")
	require.NoError(t, err)

	repos := db.NewRepositories(database)
	service := NewService(repos, catalog.NewIndex(), testEpoch)

	cleanup := func() {
		_ = database.Close()
	}

	return service, repos, cleanup
}

// seedChannel stores a channel with the given (file name, duration) pairs
func seedChannel(t *testing.T, repos *db.Repositories, name string, durations map[string]float64) *models.Channel {
	t.Helper()

	ctx := context.Background()
	channel, err := repos.Channels.GetOrCreateByName(ctx, name, "")
	require.NoError(t, err)

	for fileName, duration := range durations {
		video := models.NewVideo(channel.ID, "/library/"+name+"/"+fileName, fileName, duration)
		_, err := repos.Videos.Upsert(ctx, video)
		require.NoError(t, err)
	}
	return channel
}

func TestNowPlaying_LoadsFromDatabase(t *testing.T) {
	service, repos, cleanup := setupTestService(t)
	defer cleanup()

	seedChannel(t, repos, "channel1", map[string]float64{
		"a.mp4": 10,
		"b.mp4": 20,
		"c.mp4": 5,
	})

	service.now = func() time.Time { return testEpoch.Add(15 * time.Second) }

	pos, err := service.NowPlaying(context.Background(), "channel1")
	require.NoError(t, err)

	assert.Equal(t, "b.mp4", pos.FileName)
	assert.Equal(t, 1, pos.VideoIndex)
	assert.Equal(t, 5.0, pos.OffsetSeconds)
}

func TestNowPlaying_UnknownChannel(t *testing.T) {
	service, _, cleanup := setupTestService(t)
	defer cleanup()

	_, err := service.NowPlaying(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrChannelNotFound)
}

func TestNowPlaying_EmptyChannel(t *testing.T) {
	service, repos, cleanup := setupTestService(t)
	defer cleanup()

	seedChannel(t, repos, "channel1", nil)

	_, err := service.NowPlaying(context.Background(), "channel1")
	assert.ErrorIs(t, err, ErrNoContent)
}

func TestNowPlaying_WrapsCatalog(t *testing.T) {
	service, repos, cleanup := setupTestService(t)
	defer cleanup()

	seedChannel(t, repos, "channel1", map[string]float64{
		"a.mp4": 10,
		"b.mp4": 20,
		"c.mp4": 5,
	})

	// 37s elapsed mod 35s total lands 2s into the first video
	service.now = func() time.Time { return testEpoch.Add(37 * time.Second) }

	pos, err := service.NowPlaying(context.Background(), "channel1")
	require.NoError(t, err)

	assert.Equal(t, "a.mp4", pos.FileName)
	assert.InDelta(t, 2.0, pos.OffsetSeconds, 1e-9)
}

func TestChannelCatalog_CanonicalOrderAndTotal(t *testing.T) {
	service, repos, cleanup := setupTestService(t)
	defer cleanup()

	seedChannel(t, repos, "channel1", map[string]float64{
		"Zebra.mp4": 5,
		"apple.mp4": 10,
	})

	entries, total, err := service.ChannelCatalog(context.Background(), "channel1")
	require.NoError(t, err)

	require.Len(t, entries, 2)
	assert.Equal(t, "apple.mp4", entries[0].FileName)
	assert.Equal(t, "Zebra.mp4", entries[1].FileName)
	assert.Equal(t, 15.0, total)
}

func TestWarmLoad_PublishesAllChannels(t *testing.T) {
	service, repos, cleanup := setupTestService(t)
	defer cleanup()

	seedChannel(t, repos, "channel1", map[string]float64{"a.mp4": 10})
	seedChannel(t, repos, "channel2", map[string]float64{"b.mp4": 20})

	err := service.WarmLoad(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"channel1", "channel2"}, service.index.Channels())
	assert.Equal(t, 10.0, service.index.TotalDuration("channel1"))
	assert.Equal(t, 20.0, service.index.TotalDuration("channel2"))
}

func TestChannels_ListsInNameOrder(t *testing.T) {
	service, repos, cleanup := setupTestService(t)
	defer cleanup()

	seedChannel(t, repos, "channel2", nil)
	seedChannel(t, repos, "channel1", nil)

	channels, err := service.Channels(context.Background())
	require.NoError(t, err)

	require.Len(t, channels, 2)
	assert.Equal(t, "channel1", channels[0].Name)
	assert.Equal(t, "channel2", channels[1].Name)
}
