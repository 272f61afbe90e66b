package db

import (
	"context"
	"fmt"

	"github.com/airwavetv/airwave/internal/models"
	"github.com/google/uuid"
)

// ChannelRepository handles database operations for channels
type ChannelRepository struct {
	db *DB
}

// NewChannelRepository creates a new channel repository
func NewChannelRepository(db *DB) *ChannelRepository {
	return &ChannelRepository{db: db}
}

// Create inserts a new channel into the database
func (r *ChannelRepository) Create(ctx context.Context, channel *models.Channel) error {
	result := r.db.WithContext(ctx).Create(channel)
	if result.Error != nil {
		return fmt.Errorf("failed to create channel: %w", MapGormError(result.Error))
	}
	return nil
}

// GetByID retrieves a channel by its UUID
func (r *ChannelRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Channel, error) {
	var channel models.Channel
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&channel)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &channel, nil
}

// GetByName retrieves a channel by its unique name
func (r *ChannelRepository) GetByName(ctx context.Context, name string) (*models.Channel, error) {
	var channel models.Channel
	result := r.db.WithContext(ctx).Where("name = ?", name).First(&channel)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &channel, nil
}

// GetOrCreateByName returns the channel with the given name, creating it
// first if it does not exist yet. Used by the scanner when it discovers a
// new channel subfolder.
func (r *ChannelRepository) GetOrCreateByName(ctx context.Context, name, description string) (*models.Channel, error) {
	existing, err := r.GetByName(ctx, name)
	if err == nil {
		return existing, nil
	}
	if !IsNotFound(err) {
		return nil, fmt.Errorf("failed to look up channel %q: %w", name, err)
	}

	channel := models.NewChannel(name, description)
	if err := r.Create(ctx, channel); err != nil {
		// Lost a race with a concurrent create; fetch the winner
		if IsDuplicate(err) {
			return r.GetByName(ctx, name)
		}
		return nil, err
	}
	return channel, nil
}

// List retrieves all channels ordered by name
func (r *ChannelRepository) List(ctx context.Context) ([]*models.Channel, error) {
	var channels []*models.Channel
	result := r.db.WithContext(ctx).Order("name ASC").Find(&channels)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list channels: %w", MapGormError(result.Error))
	}
	return channels, nil
}

// Delete deletes a channel by its UUID (videos cascade)
func (r *ChannelRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&models.Channel{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete channel: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
