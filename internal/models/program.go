package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Program represents a playable media asset. SourceRef is the opaque
// reference the media-source client resolves into a URL at stream time;
// the engine never inspects it.
type Program struct {
	ID        uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	Title     string    `json:"title" gorm:"type:text;not null;column:title" validate:"required"`
	ShowName  *string   `json:"show_name,omitempty" gorm:"type:text;index;column:show_name"`
	Season    *int      `json:"season,omitempty" gorm:"type:integer;column:season"`
	Episode   *int      `json:"episode,omitempty" gorm:"type:integer;column:episode"`
	DurationMs int64    `json:"duration_ms" gorm:"type:integer;not null;column:duration_ms" validate:"required,gt=0"`
	SourceRef string    `json:"source_ref" gorm:"type:text;not null;uniqueIndex;column:source_ref" validate:"required"`
	IsFiller  bool      `json:"is_filler" gorm:"type:integer;not null;default:0;column:is_filler"`
	CreatedAt time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
}

// NewProgram creates a new Program with generated UUID and timestamp
func NewProgram(title, sourceRef string, durationMs int64) *Program {
	return &Program{
		ID:         uuid.New(),
		Title:      title,
		SourceRef:  sourceRef,
		DurationMs: durationMs,
		CreatedAt:  time.Now().UTC(),
	}
}

// DurationString returns the program duration in HH:MM:SS format
func (p *Program) DurationString() string {
	secs := p.DurationMs / 1000
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
}
