package models

import (
	"time"

	"github.com/google/uuid"
)

// PlayHistory records when a program or filler list last finished airing on
// a channel. The timestamp is the finish time, not the start time, so
// cooldown windows open only after the content has actually aired.
type PlayHistory struct {
	ChannelID    uuid.UUID      `json:"channel_id" gorm:"type:text;primaryKey;column:channel_id"`
	KeyKind      HistoryKeyKind `json:"key_kind" gorm:"type:text;primaryKey;column:key_kind"`
	KeyID        uuid.UUID      `json:"key_id" gorm:"type:text;primaryKey;column:key_id"`
	LastPlayedAt int64          `json:"last_played_at" gorm:"type:integer;not null;column:last_played_at"` // ms since epoch
	UpdatedAt    time.Time      `json:"updated_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:updated_at"`
}

// TableName overrides the default pluralization
func (PlayHistory) TableName() string {
	return "play_history"
}

// PlayState is the durable copy of a channel's last resolved lineup item.
// ItemJSON holds the serialized playable item; ResolvedAt is the wall-clock
// instant it was resolved. One row per channel.
type PlayState struct {
	ChannelID  uuid.UUID `json:"channel_id" gorm:"type:text;primaryKey;column:channel_id"`
	ItemJSON   string    `json:"item_json" gorm:"type:text;not null;column:item_json"`
	ResolvedAt int64     `json:"resolved_at" gorm:"type:integer;not null;column:resolved_at"` // ms since epoch
	UpdatedAt  time.Time `json:"updated_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:updated_at"`
}

// TableName overrides the default pluralization
func (PlayState) TableName() string {
	return "play_states"
}
