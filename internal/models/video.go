package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Video represents one measured video file inside a channel's catalog.
// Only files whose duration could actually be measured are stored; an
// unmeasurable file is excluded outright rather than recorded with a
// sentinel duration.
type Video struct {
	ID              uuid.UUID  `json:"id" gorm:"type:text;primaryKey;column:id"`
	ChannelID       uuid.UUID  `json:"channel_id" gorm:"type:text;not null;index;column:channel_id" validate:"required"`
	Path            string     `json:"path" gorm:"type:text;not null;uniqueIndex;column:path" validate:"required"`
	FileName        string     `json:"file_name" gorm:"type:text;not null;column:file_name" validate:"required"`
	DurationSeconds float64    `json:"duration_seconds" gorm:"type:real;not null;column:duration_seconds" validate:"gte=0"`
	SizeBytes       *int64     `json:"size_bytes,omitempty" gorm:"type:integer;column:size_bytes"`
	ModifiedAt      *time.Time `json:"modified_at,omitempty" gorm:"type:datetime;column:modified_at"`
	ScannedAt       time.Time  `json:"scanned_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:scanned_at"`
}

// NewVideo creates a new Video with generated UUID and scan timestamp
func NewVideo(channelID uuid.UUID, path, fileName string, durationSeconds float64) *Video {
	return &Video{
		ID:              uuid.New(),
		ChannelID:       channelID,
		Path:            path,
		FileName:        fileName,
		DurationSeconds: durationSeconds,
		ScannedAt:       time.Now().UTC(),
	}
}

// SortKey returns the canonical ordering key for catalog entries.
// Ordering must be deterministic across re-scans, so it is an explicit
// normalized file name rather than incidental storage order.
func (v *Video) SortKey() string {
	return strings.ToLower(v.FileName)
}

// DurationString returns the duration in HH:MM:SS format
func (v *Video) DurationString() string {
	total := int64(v.DurationSeconds)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}
