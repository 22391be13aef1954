package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TimeSlot is one declarative entry of a recurring schedule: a start offset
// within the repeating period plus a programming reference.
type TimeSlot struct {
	StartOffsetMs int64    `json:"start_offset_ms"`
	Kind          SlotKind `json:"kind"`

	// ShowName names the show pool for SlotKindShow
	ShowName string `json:"show_name,omitempty"`

	// FillerListID names the clip pool for SlotKindFiller
	FillerListID *uuid.UUID `json:"filler_list_id,omitempty"`

	// RedirectChannelID is the target for SlotKindRedirect
	RedirectChannelID *uuid.UUID `json:"redirect_channel_id,omitempty"`

	Order OrderMode `json:"order,omitempty"`

	// ChunkSize applies to OrderModeChunkShuffle; <= 1 behaves like shuffle
	ChunkSize int `json:"chunk_size,omitempty"`
}

// PoolKey identifies the program pool a slot draws from. Slots sharing a
// pool key and order mode share one iterator, so two slots of the same show
// never replay the same episode back-to-back.
func (s TimeSlot) PoolKey() string {
	switch s.Kind {
	case SlotKindShow:
		return "show:" + s.ShowName
	case SlotKindMovie:
		return "movie"
	case SlotKindFiller:
		if s.FillerListID != nil {
			return "filler:" + s.FillerListID.String()
		}
		return "filler:"
	default:
		return ""
	}
}

// IteratorKey combines pool and ordering so different traversals of the
// same pool keep independent cursors.
func (s TimeSlot) IteratorKey() string {
	return fmt.Sprintf("%s|%s|%d", s.PoolKey(), s.Order, s.ChunkSize)
}

// TimeSlotSchedule is the declarative recurring schedule the compiler turns
// into a concrete lineup. One schedule per channel.
type TimeSlotSchedule struct {
	ID        uuid.UUID      `json:"id" gorm:"type:text;primaryKey;column:id"`
	ChannelID uuid.UUID      `json:"channel_id" gorm:"type:text;not null;uniqueIndex;column:channel_id" validate:"required"`
	Period    SchedulePeriod `json:"period" gorm:"type:text;not null;default:'day';column:period"`
	Slots     []TimeSlot     `json:"slots" gorm:"serializer:json;column:slots"`

	// PadMs rounds lineup items up to this granularity; <= 1 disables padding
	PadMs int64 `json:"pad_ms" gorm:"type:integer;not null;default:1;column:pad_ms"`

	// MaxDays bounds how far into the future the lineup is materialized
	MaxDays int `json:"max_days" gorm:"type:integer;not null;default:2;column:max_days"`

	// LatenessMs is the maximum slot-start drift tolerated before the slot
	// occurrence is abandoned to a flex block
	LatenessMs int64 `json:"lateness_ms" gorm:"type:integer;not null;default:0;column:lateness_ms"`

	FlexPreference FlexPreference `json:"flex_preference" gorm:"type:text;not null;default:'end';column:flex_preference"`
	StartTomorrow  bool           `json:"start_tomorrow" gorm:"type:integer;not null;default:0;column:start_tomorrow"`

	CreatedAt time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:updated_at"`
}

// PeriodMs returns the schedule period length in milliseconds
func (s *TimeSlotSchedule) PeriodMs() int64 {
	const day = 24 * 60 * 60 * 1000
	if s.Period == PeriodWeek {
		return 7 * day
	}
	return day
}
