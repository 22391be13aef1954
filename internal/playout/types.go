// Package playout implements the channel playout scheduling engine: the
// virtual clock that maps wall-clock time onto a looping lineup, the
// resolver that turns a lineup position into a playable decision, the
// cooldown-aware weighted filler picker, and the playback-state cache that
// keeps a channel's position stable across reconnects and restarts.
package playout

import (
	"github.com/google/uuid"
	"github.com/telecast-io/telecast/internal/models"
)

// Position is the playout clock's answer to "where in the loop are we".
// Index is -1 for the synthetic gap before a channel's start epoch; in that
// case Item is a synthetic offline item spanning the gap.
type Position struct {
	Index         int
	Item          models.LineupItem
	TimeElapsedMs int64
}

// BeforeStart reports whether the position is the synthetic pre-broadcast gap
func (p *Position) BeforeStart() bool {
	return p.Index < 0
}

// PlayableItem is the final, fully resolved decision for what should stream
// right now. StartMs is the offset into the underlying asset at which to
// begin; StreamDurationMs is how much should play before the resolver is
// consulted again. BeginningOffsetMs records any elapsed time discarded by
// the startup snap, informational for downstream consumers.
type PlayableItem struct {
	Kind models.ItemKind `json:"kind"`

	ProgramID uuid.UUID `json:"program_id,omitempty"`
	Title     string    `json:"title,omitempty"`
	SourceRef string    `json:"source_ref,omitempty"`

	StartMs           int64 `json:"start_ms"`
	StreamDurationMs  int64 `json:"stream_duration_ms"`
	BeginningOffsetMs int64 `json:"beginning_offset_ms"`
	DurationMs        int64 `json:"duration_ms"`

	// FillerListID is set when the item is a weighted filler pick, so the
	// record path can stamp the list's play history alongside the clip's
	FillerListID uuid.UUID `json:"filler_list_id,omitempty"`

	RedirectChannelID uuid.UUID `json:"redirect_channel_id,omitempty"`
	ErrorMessage      string    `json:"error_message,omitempty"`
}

// RemainingMs returns how much of the underlying asset is left after StartMs
func (p *PlayableItem) RemainingMs() int64 {
	return p.DurationMs - p.StartMs
}
