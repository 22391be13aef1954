package channel

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/telecast-io/telecast/internal/db"
	"github.com/telecast-io/telecast/internal/logger"
	"github.com/telecast-io/telecast/internal/models"
)

// Service handles business logic for channel operations
type Service struct {
	repos *db.Repositories
}

// NewService creates a new channel service instance
func NewService(repos *db.Repositories) *Service {
	return &Service{repos: repos}
}

// Create creates a new channel with validation
func (s *Service) Create(ctx context.Context, number int, name string, startTimeEpoch int64) (*models.Channel, error) {
	if err := s.validateUniqueness(ctx, number, name, uuid.Nil); err != nil {
		logger.Log.Warn().
			Int("number", number).
			Str("name", name).
			Msg("Channel creation failed: duplicate number or name")
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	ch := models.NewChannel(number, name, startTimeEpoch)
	if err := s.repos.Channels.Create(ctx, ch); err != nil {
		logger.Log.Error().
			Err(err).
			Str("name", name).
			Msg("Failed to create channel in database")
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	logger.Log.Info().
		Str("channel_id", ch.ID.String()).
		Int("number", ch.Number).
		Str("name", ch.Name).
		Msg("Channel created successfully")

	return ch, nil
}

// GetByID retrieves a channel by its ID
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*models.Channel, error) {
	ch, err := s.repos.Channels.GetByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrChannelNotFound
		}
		logger.Log.Error().
			Err(err).
			Str("channel_id", id.String()).
			Msg("Failed to get channel by ID")
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}
	return ch, nil
}

// List retrieves all channels ordered by channel number
func (s *Service) List(ctx context.Context) ([]*models.Channel, error) {
	channels, err := s.repos.Channels.List(ctx)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to list channels")
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	return channels, nil
}

// Update updates an existing channel with validation
func (s *Service) Update(ctx context.Context, ch *models.Channel) error {
	existing, err := s.GetByID(ctx, ch.ID)
	if err != nil {
		return err
	}

	if existing.Number != ch.Number || !strings.EqualFold(existing.Name, ch.Name) {
		if err := s.validateUniqueness(ctx, ch.Number, ch.Name, ch.ID); err != nil {
			logger.Log.Warn().
				Str("channel_id", ch.ID.String()).
				Msg("Channel update failed: duplicate number or name")
			return fmt.Errorf("failed to update channel: %w", err)
		}
	}

	if err := s.repos.Channels.Update(ctx, ch); err != nil {
		logger.Log.Error().
			Err(err).
			Str("channel_id", ch.ID.String()).
			Msg("Failed to update channel in database")
		return fmt.Errorf("failed to update channel: %w", err)
	}

	logger.Log.Info().
		Str("channel_id", ch.ID.String()).
		Str("name", ch.Name).
		Msg("Channel updated successfully")

	return nil
}

// Delete deletes a channel by its ID
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}

	if err := s.repos.Channels.Delete(ctx, id); err != nil {
		logger.Log.Error().
			Err(err).
			Str("channel_id", id.String()).
			Msg("Failed to delete channel from database")
		return fmt.Errorf("failed to delete channel: %w", err)
	}

	logger.Log.Info().
		Str("channel_id", id.String()).
		Msg("Channel deleted successfully")

	return nil
}

// validateUniqueness checks channel number and name uniqueness
// (case-insensitive for names); excludeID skips the channel being updated
func (s *Service) validateUniqueness(ctx context.Context, number int, name string, excludeID uuid.UUID) error {
	channels, err := s.repos.Channels.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to validate uniqueness: %w", err)
	}

	nameLower := strings.ToLower(strings.TrimSpace(name))
	for _, ch := range channels {
		if ch.ID == excludeID {
			continue
		}
		if ch.Number == number {
			return ErrDuplicateChannelNumber
		}
		if strings.ToLower(strings.TrimSpace(ch.Name)) == nameLower {
			return ErrDuplicateChannelName
		}
	}
	return nil
}
