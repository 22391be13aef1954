package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/telecast-io/telecast/internal/models"
)

// FillerRepository handles database operations for filler lists and their
// channel associations
type FillerRepository struct {
	db *DB
}

// NewFillerRepository creates a new filler repository
func NewFillerRepository(db *DB) *FillerRepository {
	return &FillerRepository{db: db}
}

// CreateList inserts a new filler list
func (r *FillerRepository) CreateList(ctx context.Context, list *models.FillerList) error {
	result := r.db.WithContext(ctx).Create(list)
	if result.Error != nil {
		return fmt.Errorf("failed to create filler list: %w", MapGormError(result.Error))
	}
	return nil
}

// GetList retrieves a filler list with its clips preloaded
func (r *FillerRepository) GetList(ctx context.Context, id uuid.UUID) (*models.FillerList, error) {
	var list models.FillerList
	result := r.db.WithContext(ctx).
		Preload("Programs").
		Where("id = ?", id.String()).
		First(&list)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &list, nil
}

// Associate links a filler list to a channel with weight and cooldown
func (r *FillerRepository) Associate(ctx context.Context, coll *models.FillerCollection) error {
	result := r.db.WithContext(ctx).Create(coll)
	if result.Error != nil {
		return fmt.Errorf("failed to associate filler list: %w", MapGormError(result.Error))
	}
	return nil
}

// CollectionsForChannel retrieves a channel's filler associations in their
// configured order with each list's clips preloaded. This is the exact input
// shape the filler picker iterates.
func (r *FillerRepository) CollectionsForChannel(ctx context.Context, channelID uuid.UUID) ([]models.FillerCollection, error) {
	var colls []models.FillerCollection
	result := r.db.WithContext(ctx).
		Preload("List").
		Preload("List.Programs").
		Where("channel_id = ?", channelID.String()).
		Order("position ASC").
		Find(&colls)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get filler collections: %w", MapGormError(result.Error))
	}
	return colls, nil
}
