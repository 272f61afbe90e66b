package media

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbe_MissingFile(t *testing.T) {
	if err := CheckFFprobeInstalled(); err != nil {
		t.Skip("ffprobe not installed")
	}

	probe := NewFFprobe(5*time.Second, false)
	_, err := probe(context.Background(), "/does/not/exist.mp4")
	assert.ErrorIs(t, err, ErrUnknownDuration)
}

func TestProbe_NotAVideo(t *testing.T) {
	if err := CheckFFprobeInstalled(); err != nil {
		t.Skip("ffprobe not installed")
	}

	path := filepath.Join(t.TempDir(), "junk.mp4")
	require.NoError(t, os.WriteFile(path, []byte("this is not a video"), 0o644))

	probe := NewFFprobe(5*time.Second, false)
	_, err := probe(context.Background(), path)
	assert.ErrorIs(t, err, ErrUnknownDuration)
}

func TestNewFFprobe_DefaultsTimeout(t *testing.T) {
	// A non-positive timeout falls back to the default rather than making
	// every probe fail instantly
	probe := NewFFprobe(0, false)
	assert.NotNil(t, probe)
}
