package models

import (
	"time"

	"github.com/google/uuid"
)

// LineupItem is one element of a channel's looping lineup. It is a tagged
// variant: exactly the fields implied by Kind are set. Items exist only as
// ordered rows of a channel's lineup and are read-only at playout time.
type LineupItem struct {
	ID         uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	ChannelID  uuid.UUID `json:"channel_id" gorm:"type:text;not null;index;column:channel_id" validate:"required"`
	Position   int       `json:"position" gorm:"type:integer;not null;column:position" validate:"gte=0"`
	Kind       ItemKind  `json:"kind" gorm:"type:text;not null;column:kind" validate:"required"`
	DurationMs int64     `json:"duration_ms" gorm:"type:integer;not null;column:duration_ms" validate:"required,gt=0"`

	// ProgramID is set for content items
	ProgramID *uuid.UUID `json:"program_id,omitempty" gorm:"type:text;column:program_id"`

	// RedirectChannelID is set for redirect items
	RedirectChannelID *uuid.UUID `json:"redirect_channel_id,omitempty" gorm:"type:text;column:redirect_channel_id"`

	// ErrorMessage is set for error items
	ErrorMessage string `json:"error_message,omitempty" gorm:"type:text;column:error_message"`

	CreatedAt time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`

	// Populated by joins, not stored in database
	Program *Program `json:"program,omitempty" gorm:"-"`
}

// NewContentItem creates a content lineup item for the given program
func NewContentItem(channelID uuid.UUID, position int, program *Program) *LineupItem {
	id := program.ID
	return &LineupItem{
		ID:         uuid.New(),
		ChannelID:  channelID,
		Position:   position,
		Kind:       ItemKindContent,
		DurationMs: program.DurationMs,
		ProgramID:  &id,
		Program:    program,
		CreatedAt:  time.Now().UTC(),
	}
}

// NewOfflineItem creates a flex/offline lineup item of the given duration
func NewOfflineItem(channelID uuid.UUID, position int, durationMs int64) *LineupItem {
	return &LineupItem{
		ID:         uuid.New(),
		ChannelID:  channelID,
		Position:   position,
		Kind:       ItemKindOffline,
		DurationMs: durationMs,
		CreatedAt:  time.Now().UTC(),
	}
}

// NewRedirectItem creates a redirect lineup item pointing at another channel
func NewRedirectItem(channelID uuid.UUID, position int, target uuid.UUID, durationMs int64) *LineupItem {
	return &LineupItem{
		ID:                uuid.New(),
		ChannelID:         channelID,
		Position:          position,
		Kind:              ItemKindRedirect,
		DurationMs:        durationMs,
		RedirectChannelID: &target,
		CreatedAt:         time.Now().UTC(),
	}
}

// LineupDurationMs sums the durations of a lineup. The channel's DurationMs
// must equal this sum or the playout clock reports a consistency error.
func LineupDurationMs(items []LineupItem) int64 {
	var total int64
	for i := range items {
		total += items[i].DurationMs
	}
	return total
}
