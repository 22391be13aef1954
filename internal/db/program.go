package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/telecast-io/telecast/internal/models"
)

// ProgramRepository handles database operations for programs
type ProgramRepository struct {
	db *DB
}

// NewProgramRepository creates a new program repository
func NewProgramRepository(db *DB) *ProgramRepository {
	return &ProgramRepository{db: db}
}

// Create inserts a new program into the database
func (r *ProgramRepository) Create(ctx context.Context, program *models.Program) error {
	result := r.db.WithContext(ctx).Create(program)
	if result.Error != nil {
		return fmt.Errorf("failed to create program: %w", MapGormError(result.Error))
	}
	return nil
}

// GetByID retrieves a program by its UUID
func (r *ProgramRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Program, error) {
	var program models.Program
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&program)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &program, nil
}

// ListByShow retrieves a show's episodes ordered by season then episode.
// This is the pool order the schedule compiler's ordered iterator walks.
func (r *ProgramRepository) ListByShow(ctx context.Context, showName string) ([]*models.Program, error) {
	var programs []*models.Program
	result := r.db.WithContext(ctx).
		Where("show_name = ? AND is_filler = 0", showName).
		Order("season ASC, episode ASC, title ASC").
		Find(&programs)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list programs for show: %w", MapGormError(result.Error))
	}
	return programs, nil
}

// ListMovies retrieves standalone programs (no show association)
func (r *ProgramRepository) ListMovies(ctx context.Context) ([]*models.Program, error) {
	var programs []*models.Program
	result := r.db.WithContext(ctx).
		Where("show_name IS NULL AND is_filler = 0").
		Order("title ASC").
		Find(&programs)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list movies: %w", MapGormError(result.Error))
	}
	return programs, nil
}

// ListFillerPrograms retrieves the clips of a filler list in list order
func (r *ProgramRepository) ListFillerPrograms(ctx context.Context, listID uuid.UUID) ([]*models.Program, error) {
	var programs []*models.Program
	result := r.db.WithContext(ctx).
		Joins("JOIN filler_list_programs flp ON flp.program_id = programs.id").
		Where("flp.filler_list_id = ?", listID.String()).
		Order("flp.position ASC").
		Find(&programs)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list filler programs: %w", MapGormError(result.Error))
	}
	return programs, nil
}
