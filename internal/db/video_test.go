package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/airwavetv/airwave/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRepos creates repositories backed by a migrated test database
func setupTestRepos(t *testing.T) (*Repositories, func()) {
	tmpFile := filepath.Join(t.TempDir(), "test.db")
	database, err := New(tmpFile)
	require.NoError(t, err)

	sqlDB, err := database.GetSQLDB()
	require.NoError(t, err)

	err = RunMigrations(sqlDB, "file://../../migrations")
	require.NoError(t, err)

	repos := NewRepositories(database)

	cleanup := func() {
		_ = database.Close()
	}

	return repos, cleanup
}

func createTestChannel(t *testing.T, repos *Repositories, name string) *models.Channel {
	t.Helper()
	channel, err := repos.Channels.GetOrCreateByName(context.Background(), name, "")
	require.NoError(t, err)
	return channel
}

func TestVideoUpsert_CreatesNewRow(t *testing.T) {
	repos, cleanup := setupTestRepos(t)
	defer cleanup()

	ctx := context.Background()
	channel := createTestChannel(t, repos, "channel1")

	video := models.NewVideo(channel.ID, "/lib/channel1/a.mp4", "a.mp4", 10)
	stored, err := repos.Videos.Upsert(ctx, video)
	require.NoError(t, err)

	fetched, err := repos.Videos.GetByPath(ctx, "/lib/channel1/a.mp4")
	require.NoError(t, err)
	assert.Equal(t, stored.ID, fetched.ID)
	assert.Equal(t, 10.0, fetched.DurationSeconds)
}

func TestVideoUpsert_Idempotent(t *testing.T) {
	repos, cleanup := setupTestRepos(t)
	defer cleanup()

	ctx := context.Background()
	channel := createTestChannel(t, repos, "channel1")

	first, err := repos.Videos.Upsert(ctx, models.NewVideo(channel.ID, "/lib/channel1/a.mp4", "a.mp4", 10))
	require.NoError(t, err)

	// Same path, same duration: the row's identity and content survive
	second, err := repos.Videos.Upsert(ctx, models.NewVideo(channel.ID, "/lib/channel1/a.mp4", "a.mp4", 10))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	videos, err := repos.Videos.ListByChannelID(ctx, channel.ID)
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Equal(t, first.ID, videos[0].ID)
	assert.Equal(t, 10.0, videos[0].DurationSeconds)
}

func TestVideoUpsert_ReplacesMeasuredFields(t *testing.T) {
	repos, cleanup := setupTestRepos(t)
	defer cleanup()

	ctx := context.Background()
	channel := createTestChannel(t, repos, "channel1")

	first, err := repos.Videos.Upsert(ctx, models.NewVideo(channel.ID, "/lib/channel1/a.mp4", "a.mp4", 10))
	require.NoError(t, err)

	remeasured, err := repos.Videos.Upsert(ctx, models.NewVideo(channel.ID, "/lib/channel1/a.mp4", "a.mp4", 12))
	require.NoError(t, err)
	assert.Equal(t, first.ID, remeasured.ID)

	fetched, err := repos.Videos.GetByPath(ctx, "/lib/channel1/a.mp4")
	require.NoError(t, err)
	assert.Equal(t, 12.0, fetched.DurationSeconds)
}

func TestListByChannelID_CanonicalOrder(t *testing.T) {
	repos, cleanup := setupTestRepos(t)
	defer cleanup()

	ctx := context.Background()
	channel := createTestChannel(t, repos, "channel1")

	// Inserted out of order, mixed case
	for _, name := range []string{"Zebra.mp4", "apple.mp4", "Mango.mkv"} {
		_, err := repos.Videos.Upsert(ctx, models.NewVideo(channel.ID, "/lib/channel1/"+name, name, 10))
		require.NoError(t, err)
	}

	videos, err := repos.Videos.ListByChannelID(ctx, channel.ID)
	require.NoError(t, err)

	require.Len(t, videos, 3)
	assert.Equal(t, "apple.mp4", videos[0].FileName)
	assert.Equal(t, "Mango.mkv", videos[1].FileName)
	assert.Equal(t, "Zebra.mp4", videos[2].FileName)
}

func TestTotalDurationByChannelID(t *testing.T) {
	repos, cleanup := setupTestRepos(t)
	defer cleanup()

	ctx := context.Background()
	channel := createTestChannel(t, repos, "channel1")

	total, err := repos.Videos.TotalDurationByChannelID(ctx, channel.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, total)

	_, err = repos.Videos.Upsert(ctx, models.NewVideo(channel.ID, "/lib/channel1/a.mp4", "a.mp4", 10.5))
	require.NoError(t, err)
	_, err = repos.Videos.Upsert(ctx, models.NewVideo(channel.ID, "/lib/channel1/b.mp4", "b.mp4", 20))
	require.NoError(t, err)

	total, err = repos.Videos.TotalDurationByChannelID(ctx, channel.ID)
	require.NoError(t, err)
	assert.Equal(t, 30.5, total)
}

func TestTotalDurationByChannelID_UnknownChannel(t *testing.T) {
	repos, cleanup := setupTestRepos(t)
	defer cleanup()

	total, err := repos.Videos.TotalDurationByChannelID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 0.0, total)
}

func TestReplaceForChannel_RebuildsWholesale(t *testing.T) {
	repos, cleanup := setupTestRepos(t)
	defer cleanup()

	ctx := context.Background()
	channel := createTestChannel(t, repos, "channel1")

	_, err := repos.Videos.Upsert(ctx, models.NewVideo(channel.ID, "/lib/channel1/old.mp4", "old.mp4", 100))
	require.NoError(t, err)

	replacement := []*models.Video{
		models.NewVideo(channel.ID, "/lib/channel1/new1.mp4", "new1.mp4", 10),
		models.NewVideo(channel.ID, "/lib/channel1/new2.mp4", "new2.mp4", 20),
	}
	err = repos.Videos.ReplaceForChannel(ctx, channel.ID, replacement)
	require.NoError(t, err)

	videos, err := repos.Videos.ListByChannelID(ctx, channel.ID)
	require.NoError(t, err)
	require.Len(t, videos, 2)
	assert.Equal(t, "new1.mp4", videos[0].FileName)
	assert.Equal(t, "new2.mp4", videos[1].FileName)
}

func TestGetOrCreateByName_ReturnsExisting(t *testing.T) {
	repos, cleanup := setupTestRepos(t)
	defer cleanup()

	ctx := context.Background()
	first, err := repos.Channels.GetOrCreateByName(ctx, "channel1", "")
	require.NoError(t, err)

	second, err := repos.Channels.GetOrCreateByName(ctx, "channel1", "")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	channels, err := repos.Channels.List(ctx)
	require.NoError(t, err)
	assert.Len(t, channels, 1)
}

func TestChannelDelete_CascadesVideos(t *testing.T) {
	repos, cleanup := setupTestRepos(t)
	defer cleanup()

	ctx := context.Background()
	channel := createTestChannel(t, repos, "channel1")

	_, err := repos.Videos.Upsert(ctx, models.NewVideo(channel.ID, "/lib/channel1/a.mp4", "a.mp4", 10))
	require.NoError(t, err)

	err = repos.Channels.Delete(ctx, channel.ID)
	require.NoError(t, err)

	videos, err := repos.Videos.ListByChannelID(ctx, channel.ID)
	require.NoError(t, err)
	assert.Empty(t, videos)
}
