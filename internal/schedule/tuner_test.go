package schedule

import (
	"testing"
	"time"

	"github.com/airwavetv/airwave/internal/catalog"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tunerTestIndex(t *testing.T) *catalog.Index {
	t.Helper()

	ix := catalog.NewIndex()
	_, err := ix.Publish("channel1", []catalog.Entry{
		{ID: uuid.New(), Path: "/lib/channel1/a.mp4", FileName: "a.mp4", DurationSeconds: 10},
		{ID: uuid.New(), Path: "/lib/channel1/b.mp4", FileName: "b.mp4", DurationSeconds: 20},
		{ID: uuid.New(), Path: "/lib/channel1/c.mp4", FileName: "c.mp4", DurationSeconds: 5},
	})
	require.NoError(t, err)
	_, err = ix.Publish("channel2", nil)
	require.NoError(t, err)
	return ix
}

func TestTuner_TuneToResolvesOnce(t *testing.T) {
	epoch := time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC)
	tuner := NewTuner(tunerTestIndex(t), epoch)
	tuner.now = func() time.Time { return epoch.Add(15 * time.Second) }

	pos, err := tuner.TuneTo("channel1")
	require.NoError(t, err)

	assert.Equal(t, 1, pos.VideoIndex)
	assert.Equal(t, 5.0, pos.OffsetSeconds)

	channel, lastIndex := tuner.Active()
	assert.Equal(t, "channel1", channel)
	assert.Equal(t, 1, lastIndex)
}

func TestTuner_TuneToEmptyChannel(t *testing.T) {
	epoch := time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC)
	tuner := NewTuner(tunerTestIndex(t), epoch)

	pos, err := tuner.TuneTo("channel2")

	assert.Nil(t, pos)
	assert.ErrorIs(t, err, ErrNoContent)

	// The empty channel still becomes active so the caller can show idle
	channel, lastIndex := tuner.Active()
	assert.Equal(t, "channel2", channel)
	assert.Equal(t, -1, lastIndex)
}

func TestTuner_TuneToUnknownChannel(t *testing.T) {
	epoch := time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC)
	tuner := NewTuner(tunerTestIndex(t), epoch)

	_, err := tuner.TuneTo("nope")
	assert.ErrorIs(t, err, ErrNoContent)
}

func TestTuner_AdvanceWrapsAroundCatalog(t *testing.T) {
	epoch := time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC)
	tuner := NewTuner(tunerTestIndex(t), epoch)
	tuner.now = func() time.Time { return epoch }

	pos, err := tuner.TuneTo("channel1")
	require.NoError(t, err)
	require.Equal(t, 0, pos.VideoIndex)

	// End-of-file advancement walks the canonical order and wraps
	for _, want := range []int{1, 2, 0, 1} {
		pos, err = tuner.Advance()
		require.NoError(t, err)
		assert.Equal(t, want, pos.VideoIndex)
		assert.Equal(t, 0.0, pos.OffsetSeconds)
	}
}

func TestTuner_TuneUpAndDownWrap(t *testing.T) {
	epoch := time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC)
	tuner := NewTuner(tunerTestIndex(t), epoch)
	tuner.now = func() time.Time { return epoch }

	// No active channel yet: Up lands on the first channel in name order
	channel, pos, err := tuner.TuneUp()
	require.NoError(t, err)
	assert.Equal(t, "channel1", channel)
	require.NotNil(t, pos)
	assert.Equal(t, 0, pos.VideoIndex)

	// Up again reaches the empty channel2, which is idle but active
	channel, pos, err = tuner.TuneUp()
	assert.Equal(t, "channel2", channel)
	assert.Nil(t, pos)
	assert.ErrorIs(t, err, ErrNoContent)

	// Up wraps back to channel1
	channel, _, err = tuner.TuneUp()
	require.NoError(t, err)
	assert.Equal(t, "channel1", channel)

	// Down wraps the other way
	channel, _, err = tuner.TuneDown()
	assert.Equal(t, "channel2", channel)
	assert.ErrorIs(t, err, ErrNoContent)
}

func TestTuner_TuneUpNoChannels(t *testing.T) {
	epoch := time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC)
	tuner := NewTuner(catalog.NewIndex(), epoch)

	_, _, err := tuner.TuneUp()
	assert.ErrorIs(t, err, ErrNoContent)
}

func TestTuner_AdvanceWithoutContent(t *testing.T) {
	epoch := time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC)
	tuner := NewTuner(tunerTestIndex(t), epoch)

	_, err := tuner.TuneTo("channel2")
	require.ErrorIs(t, err, ErrNoContent)

	_, err = tuner.Advance()
	assert.ErrorIs(t, err, ErrNoContent)
}

func TestTuner_AdvanceAfterCatalogShrinks(t *testing.T) {
	epoch := time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC)
	ix := tunerTestIndex(t)
	tuner := NewTuner(ix, epoch)
	tuner.now = func() time.Time { return epoch.Add(31 * time.Second) }

	pos, err := tuner.TuneTo("channel1")
	require.NoError(t, err)
	require.Equal(t, 2, pos.VideoIndex)

	// A rescan shrinks the catalog under the tuner
	_, err = ix.Publish("channel1", []catalog.Entry{
		{ID: uuid.New(), Path: "/lib/channel1/a.mp4", FileName: "a.mp4", DurationSeconds: 10},
	})
	require.NoError(t, err)

	pos, err = tuner.Advance()
	require.NoError(t, err)
	assert.Equal(t, 0, pos.VideoIndex)
}
