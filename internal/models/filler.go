package models

import (
	"time"

	"github.com/google/uuid"
)

// FillerList is an ordered collection of short-form clips used to fill
// schedule gaps.
type FillerList struct {
	ID        uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	Name      string    `json:"name" gorm:"type:text;not null;column:name" validate:"required"`
	CreatedAt time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`

	// Populated by joins, ordered by position in the list
	Programs []Program `json:"programs,omitempty" gorm:"many2many:filler_list_programs"`
}

// NewFillerList creates a new FillerList with generated UUID and timestamp
func NewFillerList(name string) *FillerList {
	return &FillerList{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
}

// FillerCollection associates a filler list with a channel. Weight sets the
// list's relative selection probability; CooldownSeconds is the minimum time
// before any clip of the list may be picked again, independent of per-clip
// cooldowns.
type FillerCollection struct {
	ID              uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	ChannelID       uuid.UUID `json:"channel_id" gorm:"type:text;not null;index;column:channel_id" validate:"required"`
	FillerListID    uuid.UUID `json:"filler_list_id" gorm:"type:text;not null;column:filler_list_id" validate:"required"`
	Position        int       `json:"position" gorm:"type:integer;not null;default:0;column:position"`
	Weight          int64     `json:"weight" gorm:"type:integer;not null;default:1;column:weight" validate:"gte=1"`
	CooldownSeconds int64     `json:"cooldown_seconds" gorm:"type:integer;not null;default:0;column:cooldown_seconds"`
	CreatedAt       time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`

	// Populated by joins, not stored in database
	List *FillerList `json:"list,omitempty" gorm:"foreignKey:FillerListID"`
}

// NewFillerCollection associates a filler list with a channel
func NewFillerCollection(channelID, listID uuid.UUID, weight int64) *FillerCollection {
	if weight < 1 {
		weight = 1
	}
	return &FillerCollection{
		ID:           uuid.New(),
		ChannelID:    channelID,
		FillerListID: listID,
		Weight:       weight,
		CreatedAt:    time.Now().UTC(),
	}
}
