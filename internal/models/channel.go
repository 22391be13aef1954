package models

import (
	"time"

	"github.com/google/uuid"
)

// Channel represents a simulated broadcast channel. StartTimeEpoch marks
// the origin of the lineup loop and DurationMs its total length; the playout
// engine only reads these, lineup edits rewrite them.
type Channel struct {
	ID             uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	Number         int       `json:"number" gorm:"type:integer;not null;uniqueIndex;column:number" validate:"required,gte=1"`
	Name           string    `json:"name" gorm:"type:text;not null;column:name" validate:"required,min=1,max=255"`
	Icon           *string   `json:"icon,omitempty" gorm:"type:text;column:icon"`
	StartTimeEpoch int64     `json:"start_time_epoch" gorm:"type:integer;not null;column:start_time_epoch"` // ms since epoch
	DurationMs     int64     `json:"duration_ms" gorm:"type:integer;not null;default:0;column:duration_ms"` // sum of lineup item durations

	// FillerRepeatCooldownMs overrides the global per-clip cooldown when > 0
	FillerRepeatCooldownMs int64 `json:"filler_repeat_cooldown_ms" gorm:"type:integer;not null;default:0;column:filler_repeat_cooldown_ms"`

	OfflineMode    OfflineMode `json:"offline_mode" gorm:"type:text;not null;default:'pic';column:offline_mode"`
	OfflinePicture *string     `json:"offline_picture,omitempty" gorm:"type:text;column:offline_picture"`

	CreatedAt time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
	UpdatedAt time.Time `json:"updated_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:updated_at"`

	// Fallback programs looped when OfflineMode is "clip" and no weighted
	// filler is available. Populated by joins.
	Fallback []Program `json:"fallback,omitempty" gorm:"many2many:channel_fallbacks"`
}

// NewChannel creates a new Channel with generated UUID and timestamps
func NewChannel(number int, name string, startTimeEpoch int64) *Channel {
	now := time.Now().UTC()
	return &Channel{
		ID:             uuid.New(),
		Number:         number,
		Name:           name,
		StartTimeEpoch: startTimeEpoch,
		OfflineMode:    OfflineModePic,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// EffectiveFillerCooldownMs returns the channel's per-clip cooldown,
// falling back to the supplied default when the channel has none set.
func (c *Channel) EffectiveFillerCooldownMs(defaultMs int64) int64 {
	if c.FillerRepeatCooldownMs > 0 {
		return c.FillerRepeatCooldownMs
	}
	return defaultMs
}
