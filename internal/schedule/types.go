package schedule

import (
	"time"

	"github.com/google/uuid"
)

// Position describes which video a channel should be playing at a given
// moment and where inside that video the playhead sits. The playback
// engine opens Path and seeks to OffsetSeconds.
type Position struct {
	// VideoID is the durable identity of the active catalog entry
	VideoID uuid.UUID `json:"video_id"`

	// Path is the file identifier handed to the playback engine
	Path string `json:"path"`

	// FileName is the active entry's display name
	FileName string `json:"file_name"`

	// VideoIndex is the entry's index in the channel's canonical order
	VideoIndex int `json:"video_index"`

	// OffsetSeconds is the seek offset within the active video. Offsets
	// are second-granularity approximations, intentionally tolerant of
	// drift.
	OffsetSeconds float64 `json:"offset_seconds"`

	// DurationSeconds is the active video's total duration
	DurationSeconds float64 `json:"duration_seconds"`

	// StartedAt is when the active video notionally began playing
	StartedAt time.Time `json:"started_at"`

	// EndsAt is when the active video will notionally finish
	EndsAt time.Time `json:"ends_at"`
}
