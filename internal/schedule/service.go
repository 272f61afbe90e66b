package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/airwavetv/airwave/internal/catalog"
	"github.com/airwavetv/airwave/internal/db"
	"github.com/airwavetv/airwave/internal/logger"
	"github.com/airwavetv/airwave/internal/models"
)

// Service handles business logic for schedule resolution. It serves
// resolutions from the in-memory duration index, falling back to the
// durable store for channels that have not been published yet.
type Service struct {
	repos *db.Repositories
	index *catalog.Index
	epoch time.Time
	now   func() time.Time
}

// NewService creates a new schedule service instance
func NewService(repos *db.Repositories, index *catalog.Index, epoch time.Time) *Service {
	return &Service{
		repos: repos,
		index: index,
		epoch: epoch,
		now:   time.Now,
	}
}

// Epoch returns the fixed go-live epoch positions are measured from
func (s *Service) Epoch() time.Time {
	return s.epoch
}

// NowPlaying resolves the current playback position for a channel.
//
// Returns ErrChannelNotFound for an unknown channel, ErrNoContent for a
// channel with nothing to schedule, or wrapped database errors.
func (s *Service) NowPlaying(ctx context.Context, channelName string) (*Position, error) {
	snapshot, ok := s.index.Snapshot(channelName)
	if !ok {
		var err error
		snapshot, err = s.loadChannel(ctx, channelName)
		if err != nil {
			return nil, err
		}
	}

	pos, err := Resolve(s.epoch, s.now().UTC(), snapshot)
	if err != nil {
		logger.Log.Debug().
			Str("channel", channelName).
			Msg("Channel resolved to no content")
		return nil, err
	}

	logger.Log.Debug().
		Str("channel", channelName).
		Str("file_name", pos.FileName).
		Int("video_index", pos.VideoIndex).
		Float64("offset_seconds", pos.OffsetSeconds).
		Msg("Resolved channel position")

	return pos, nil
}

// Channels lists all known channels in name order
func (s *Service) Channels(ctx context.Context) ([]*models.Channel, error) {
	channels, err := s.repos.Channels.List(ctx)
	if err != nil {
		logger.Log.Error().
			Err(err).
			Msg("Failed to list channels")
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	return channels, nil
}

// ChannelCatalog returns a channel's entries in canonical order together
// with its total duration, loading it from the durable store if it has
// not been published to the index yet
func (s *Service) ChannelCatalog(ctx context.Context, channelName string) ([]catalog.Entry, float64, error) {
	snapshot, ok := s.index.Snapshot(channelName)
	if !ok {
		var err error
		snapshot, err = s.loadChannel(ctx, channelName)
		if err != nil {
			return nil, 0, err
		}
	}
	return snapshot.Entries(), snapshot.TotalSeconds(), nil
}

// WarmLoad publishes every stored channel's catalog into the in-memory
// index. Called once at startup so resolution does not depend on a scan
// having run in this process.
func (s *Service) WarmLoad(ctx context.Context) error {
	channels, err := s.repos.Channels.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list channels for warm load: %w", err)
	}

	for _, channel := range channels {
		if _, err := s.loadChannel(ctx, channel.Name); err != nil {
			return fmt.Errorf("failed to warm load channel %q: %w", channel.Name, err)
		}
	}

	logger.Log.Info().
		Int("channels", len(channels)).
		Msg("Duration index warm loaded from database")

	return nil
}

// loadChannel reads a channel's videos from the durable store and
// publishes them as a fresh index snapshot
func (s *Service) loadChannel(ctx context.Context, channelName string) (*catalog.ChannelIndex, error) {
	channel, err := s.repos.Channels.GetByName(ctx, channelName)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrChannelNotFound
		}
		logger.Log.Error().
			Err(err).
			Str("channel", channelName).
			Msg("Failed to fetch channel from database")
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}

	videos, err := s.repos.Videos.ListByChannelID(ctx, channel.ID)
	if err != nil {
		logger.Log.Error().
			Err(err).
			Str("channel", channelName).
			Msg("Failed to fetch channel videos from database")
		return nil, fmt.Errorf("failed to get channel videos: %w", err)
	}

	snapshot, err := s.index.Publish(channel.Name, EntriesFromVideos(videos))
	if err != nil {
		return nil, fmt.Errorf("failed to publish channel %q: %w", channel.Name, err)
	}
	return snapshot, nil
}

// EntriesFromVideos converts stored video rows into catalog entries
func EntriesFromVideos(videos []*models.Video) []catalog.Entry {
	entries := make([]catalog.Entry, 0, len(videos))
	for _, v := range videos {
		entries = append(entries, catalog.Entry{
			ID:              v.ID,
			Path:            v.Path,
			FileName:        v.FileName,
			DurationSeconds: v.DurationSeconds,
		})
	}
	return entries
}
