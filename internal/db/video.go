package db

import (
	"context"
	"fmt"

	"github.com/airwavetv/airwave/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VideoRepository handles database operations for catalog videos
type VideoRepository struct {
	db *DB
}

// NewVideoRepository creates a new video repository
func NewVideoRepository(db *DB) *VideoRepository {
	return &VideoRepository{db: db}
}

// Create inserts a new video into the database
func (r *VideoRepository) Create(ctx context.Context, video *models.Video) error {
	result := r.db.WithContext(ctx).Create(video)
	if result.Error != nil {
		return fmt.Errorf("failed to create video: %w", MapGormError(result.Error))
	}
	return nil
}

// GetByID retrieves a video by its UUID
func (r *VideoRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	var video models.Video
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&video)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &video, nil
}

// GetByPath retrieves a video by its file path
func (r *VideoRepository) GetByPath(ctx context.Context, path string) (*models.Video, error) {
	var video models.Video
	result := r.db.WithContext(ctx).Where("path = ?", path).First(&video)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &video, nil
}

// Upsert inserts a video or, if the path already exists, replaces its
// measured fields while keeping the row's identity and returning it.
// Upserting identical data is observationally a no-op.
func (r *VideoRepository) Upsert(ctx context.Context, video *models.Video) (*models.Video, error) {
	err := r.Create(ctx, video)
	if err == nil {
		return video, nil
	}
	if !IsDuplicate(err) {
		return nil, err
	}

	existing, err := r.GetByPath(ctx, video.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch existing video after duplicate: %w", err)
	}

	video.ID = existing.ID
	updates := map[string]interface{}{
		"channel_id":       video.ChannelID.String(),
		"file_name":        video.FileName,
		"duration_seconds": video.DurationSeconds,
		"size_bytes":       video.SizeBytes,
		"modified_at":      video.ModifiedAt,
		"scanned_at":       video.ScannedAt,
	}
	result := r.db.WithContext(ctx).Model(&models.Video{}).Where("id = ?", existing.ID.String()).Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update video: %w", MapGormError(result.Error))
	}
	return video, nil
}

// ListByChannelID retrieves all videos for a channel in canonical order
// (normalized file name, path as tie-break)
func (r *VideoRepository) ListByChannelID(ctx context.Context, channelID uuid.UUID) ([]*models.Video, error) {
	var videos []*models.Video
	result := r.db.WithContext(ctx).
		Where("channel_id = ?", channelID.String()).
		Order("LOWER(file_name) ASC, path ASC").
		Find(&videos)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list videos by channel: %w", MapGormError(result.Error))
	}
	return videos, nil
}

// TotalDurationByChannelID returns the summed duration of a channel's
// videos in seconds; 0 for an empty or unknown channel
func (r *VideoRepository) TotalDurationByChannelID(ctx context.Context, channelID uuid.UUID) (float64, error) {
	var total float64
	result := r.db.WithContext(ctx).
		Model(&models.Video{}).
		Where("channel_id = ?", channelID.String()).
		Select("COALESCE(SUM(duration_seconds), 0)").
		Scan(&total)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to sum channel durations: %w", MapGormError(result.Error))
	}
	return total, nil
}

// Count returns the total number of videos
func (r *VideoRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.Video{}).Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count videos: %w", MapGormError(result.Error))
	}
	return count, nil
}

// ReplaceForChannel rebuilds a channel's video list wholesale inside a
// transaction. Readers of the durable store never observe a half-written
// catalog; the in-memory index is republished separately by the caller.
func (r *VideoRepository) ReplaceForChannel(ctx context.Context, channelID uuid.UUID, videos []*models.Video) error {
	return r.db.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("channel_id = ?", channelID.String()).Delete(&models.Video{}).Error; err != nil {
			return fmt.Errorf("failed to clear channel videos: %w", MapGormError(err))
		}
		for _, video := range videos {
			if err := tx.Create(video).Error; err != nil {
				return fmt.Errorf("failed to insert video %s: %w", video.Path, MapGormError(err))
			}
		}
		return nil
	})
}

// DeleteByChannelID deletes all videos for a channel
func (r *VideoRepository) DeleteByChannelID(ctx context.Context, channelID uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("channel_id = ?", channelID.String()).Delete(&models.Video{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete videos by channel: %w", MapGormError(result.Error))
	}
	return nil
}
